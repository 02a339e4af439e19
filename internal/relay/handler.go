package relay

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"arkana/internal/domain"
	u "arkana/internal/utils"
)

// Handler serves the mail relay endpoint.
type Handler struct {
	Mailer  Mailer
	Timeout time.Duration
}

func NewHandler(m Mailer, timeout time.Duration) *Handler {
	return &Handler{Mailer: m, Timeout: timeout}
}

// SendEmail accepts a budget request as JSON and forwards it to the studio
// mailbox.
func (h *Handler) SendEmail(c *fiber.Ctx) error {
	var req domain.BudgetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
	}
	if missing := req.MissingFields(); len(missing) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   domain.ErrMissingFields.Error(),
			"details": strings.Join(missing, ", "),
		})
	}

	requestID, _ := c.Locals("requestid").(string)
	email, err := Compose(req)
	if err != nil {
		u.Error("Email compose failed", "error", err, "request_id", requestID)
		return sendFailed(c, err)
	}

	ctx := c.UserContext()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}
	id, err := h.Mailer.Send(ctx, email)
	if err != nil {
		u.Error("Email send failed", "error", err, "servicio", req.Servicio, "request_id", requestID)
		return sendFailed(c, err)
	}

	u.Info("Budget request relayed", "servicio", req.Servicio, "message_id", id, "request_id", requestID)
	return c.JSON(fiber.Map{"success": true, "messageId": id})
}

func sendFailed(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "Failed to send email",
		"details": err.Error(),
	})
}

// Probe reports that the relay is up.
func (h *Handler) Probe(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Email server is working!"})
}
