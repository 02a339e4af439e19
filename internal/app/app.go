package app

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"arkana/internal/admin"
	"arkana/internal/catalog"
	"arkana/internal/content"
	"arkana/internal/handlers"
	"arkana/internal/pricelist"
	"arkana/internal/pricing"
	"arkana/internal/relay"
	u "arkana/internal/utils"
	"arkana/internal/views"
)

// Deps are the external resources the app runs on. Nil Mailer and Sender
// are built from the configuration; an empty RelayToken is generated.
type Deps struct {
	Storage    fiber.Storage
	Redis      *redis.Client
	Mailer     relay.Mailer
	Sender     relay.Sender
	RelayToken string
}

// SetupApp creates and configures a new Fiber app instance
func SetupApp(cfg u.Config, deps Deps) (*fiber.App, error) {
	if deps.Storage == nil {
		return nil, errors.New("app: storage is required")
	}
	renderer, err := views.New()
	if err != nil {
		return nil, err
	}
	site, err := content.Load()
	if err != nil {
		return nil, err
	}
	if deps.Mailer == nil {
		deps.Mailer = relay.NewSMTPMailer(cfg.Mail)
	}
	if deps.RelayToken == "" {
		buf := make([]byte, 16)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("app: relay token: %w", err)
		}
		deps.RelayToken = hex.EncodeToString(buf)
	}
	if deps.Sender == nil {
		sender := relay.NewHTTPSender(cfg.RelayEndpoint())
		// Only the site's own endpoint gets to see the token.
		if cfg.Relay.Endpoint == "" {
			sender.Token = deps.RelayToken
		}
		deps.Sender = sender
	}

	svc := catalog.NewService(catalog.NewStorageStore(deps.Storage))
	h := &handlers.Handlers{
		Config:    cfg,
		Catalog:   svc,
		Drafts:    catalog.NewDrafts(svc),
		Gate:      admin.NewGate(deps.Storage, cfg.Admin.Password),
		Views:     renderer,
		Site:      site,
		Sender:    deps.Sender,
		InFlight:  relay.NewInFlight(),
		PriceList: pricelist.NewService(cfg.PriceList, deps.Redis),
		Chooser:   pricing.Chooser{Number: cfg.Contact.WhatsAppNumber},
	}
	tokens := admin.NewTokens(cfg.Admin.SessionSecret, cfg.Admin.SessionTTL)

	app := fiber.New(fiber.Config{
		Prefork:               cfg.Server.Prefork,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(renderer),
	})

	RegisterMiddleware(app, cfg, deps.Storage, tokens)
	RegisterRoutes(app, cfg, h, relay.NewHandler(deps.Mailer, cfg.Mail.Timeout), tokens, deps.Storage, deps.RelayToken)

	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app, nil
}

// wantsJSON reports whether errors on this path are answered with JSON.
func wantsJSON(c *fiber.Ctx) bool {
	p := c.Path()
	return strings.HasPrefix(p, "/api") || strings.HasPrefix(p, "/ops") ||
		strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON)
}

func errorHandler(renderer *views.Renderer) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := "Internal Server Error"

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			msg = e.Message
		}

		requestID, _ := c.Locals("requestid").(string)
		if code >= fiber.StatusInternalServerError {
			u.Error("Request failed", "path", c.Path(), "status", code, "error", err, "request_id", requestID)
		} else {
			u.Warn("Request failed", "path", c.Path(), "status", code, "message", msg, "request_id", requestID)
		}

		if wantsJSON(c) {
			return c.Status(code).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    code,
					"message": msg,
				},
			})
		}

		var buf bytes.Buffer
		page := views.ErrorPage{
			Page:    views.Page{Title: fmt.Sprintf("Error %d", code), RequestID: requestID},
			Code:    code,
			Message: msg,
		}
		if rerr := renderer.Render(&buf, views.PageError, page); rerr != nil {
			return c.Status(code).SendString(msg)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.Status(code).Send(buf.Bytes())
	}
}

// RegisterRoutes mounts all route handlers to the app
func RegisterRoutes(app *fiber.App, cfg u.Config, h *handlers.Handlers, mail *relay.Handler, tokens *admin.Tokens, storage fiber.Storage, relayToken string) {
	guard := requireAdmin(tokens, h.Gate)
	limit := relayLimiter(cfg, storage, relayToken)

	app.Get("/", h.Landing)
	app.Get("/packs/:key/:tier", h.PackPrompt)
	app.Post("/packs/:key/:tier", h.ChoosePack)
	app.Post("/presupuesto", limit, h.SubmitBudget)
	app.Get("/precios.pdf", h.PriceListPDF)

	// Public admin routes go before the guarded groups.
	app.Post("/admin/toggle", h.Toggle)
	app.Post("/admin/login", h.Login)

	panel := app.Group("/admin", guard)
	panel.Get("/", h.AdminPanel)
	panel.Post("/logout", h.Logout)
	panel.Post("/categories", h.CreateCategory)
	panel.Post("/categories/:key/delete", h.DeleteCategory)
	panel.Post("/categories/:key/edit", h.StartEdit)
	panel.Post("/draft", h.SaveDraft)
	panel.Post("/reset", h.ResetCatalog)

	api := app.Group("/api")
	api.Get("/test", mail.Probe)
	api.Post("/send-email", limit, mail.SendEmail)
	api.Get("/catalog", h.CatalogJSON)
	api.Get("/admin/session", h.Session)
	api.Post("/admin/toggle", h.ToggleJSON)
	api.Post("/admin/login", h.LoginJSON)
	api.Post("/admin/logout", h.LogoutJSON)

	ed := api.Group("/admin", guard)
	ed.Post("/categories", h.CreateCategoryJSON)
	ed.Delete("/categories/:key", h.DeleteCategoryJSON)
	ed.Post("/categories/:key/edit", h.StartEditJSON)
	ed.Get("/draft", h.GetDraft)
	ed.Delete("/draft", h.CancelJSON)
	ed.Put("/draft/title", h.SetTitleJSON)
	ed.Put("/draft/blurb", h.SetBlurbJSON)
	ed.Post("/draft/tiers", h.AddTierJSON)
	ed.Patch("/draft/tiers/:tier", h.UpdateTierJSON)
	ed.Delete("/draft/tiers/:tier", h.RemoveTierJSON)
	ed.Post("/draft/tiers/:tier/features", h.AddFeatureJSON)
	ed.Put("/draft/tiers/:tier/features/:feature", h.UpdateFeatureJSON)
	ed.Delete("/draft/tiers/:tier/features/:feature", h.RemoveFeatureJSON)
	ed.Post("/draft/commit", h.CommitJSON)
	ed.Post("/reset", h.ResetCatalogJSON)

	app.Get("/ops/monitor", guard, monitorHandler())
}
