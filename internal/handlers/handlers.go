package handlers

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/gofiber/fiber/v2"

	"arkana/internal/admin"
	"arkana/internal/catalog"
	"arkana/internal/content"
	"arkana/internal/domain"
	"arkana/internal/pricelist"
	"arkana/internal/pricing"
	"arkana/internal/relay"
	u "arkana/internal/utils"
	"arkana/internal/views"
)

// LocalClientID is the fiber.Ctx local holding the browser id set by the
// session middleware.
const LocalClientID = "client_id"

// Handlers bundles the site state shared by every request.
type Handlers struct {
	Config    u.Config
	Catalog   *catalog.Service
	Drafts    *catalog.Drafts
	Gate      *admin.Gate
	Views     *views.Renderer
	Site      *content.Site
	Sender    relay.Sender
	InFlight  *relay.InFlight
	PriceList *pricelist.Service
	Chooser   pricing.Chooser
}

// ClientID returns the browser id of the request, or "" before the session
// middleware ran.
func ClientID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalClientID).(string)
	return id
}

// ClientHash identifies a visitor by IP and User-Agent.
func ClientHash(c *fiber.Ctx) string {
	sum := sha256.Sum256([]byte(c.IP() + c.Get("User-Agent")))
	return hex.EncodeToString(sum[:])
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}

func (h *Handlers) session(c *fiber.Ctx) admin.Session {
	return h.Gate.Load(ClientID(c))
}

func (h *Handlers) render(c *fiber.Ctx, status int, page string, data any) error {
	var buf bytes.Buffer
	if err := h.Views.Render(&buf, page, data); err != nil {
		u.Error("Template render failed", "page", page, "error", err, "request_id", requestID(c))
		return fiber.NewError(fiber.StatusInternalServerError, "Template render failed")
	}
	c.Status(status)
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrCategoryNotFound), errors.Is(err, domain.ErrTierNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrCategoryExists), errors.Is(err, domain.ErrLastCategory),
		errors.Is(err, domain.ErrNoDraft), errors.Is(err, domain.ErrSubmissionInFlight):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrInvalidCategoryKey), errors.Is(err, domain.ErrUnknownTierField),
		errors.Is(err, domain.ErrMissingFields):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// asFiberError turns err into a *fiber.Error for the app error handler.
func asFiberError(err error) error {
	code := statusFor(err)
	if code == fiber.StatusInternalServerError {
		return err
	}
	return fiber.NewError(code, err.Error())
}
