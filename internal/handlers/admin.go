package handlers

import (
	"github.com/gofiber/fiber/v2"

	"arkana/internal/pricing"
	"arkana/internal/views"
)

// Toggle is the footer admin button: it logs an admin out or opens the login
// prompt.
func (h *Handlers) Toggle(c *fiber.Ctx) error {
	s, err := h.Gate.Toggle(h.session(c))
	if err != nil {
		return err
	}
	if s.PromptVisible {
		return c.Redirect("/?login=1#precios", fiber.StatusSeeOther)
	}
	h.Drafts.Drop(s.ClientID)
	return c.Redirect("/#precios", fiber.StatusSeeOther)
}

// Login checks the submitted password. A mismatch re-renders the page with
// the prompt open, the error shown and the password field empty.
func (h *Handlers) Login(c *fiber.Ctx) error {
	s, ok, err := h.Gate.AttemptLogin(h.session(c), c.FormValue("password"))
	if err != nil {
		return err
	}
	if ok {
		return c.Redirect("/"+s.ScrollTo, fiber.StatusSeeOther)
	}
	v := h.landingView(c, pricing.NewDisplay(h.Catalog.Snapshot(), ""))
	v.Session = s
	return h.render(c, fiber.StatusUnauthorized, views.PageLanding, v)
}

func (h *Handlers) Logout(c *fiber.Ctx) error {
	s, err := h.Gate.Logout(h.session(c))
	if err != nil {
		return err
	}
	h.Drafts.Drop(s.ClientID)
	return c.Redirect("/#precios", fiber.StatusSeeOther)
}

// Session reports the admin state of the calling browser.
func (h *Handlers) Session(c *fiber.Ctx) error {
	return c.JSON(h.session(c))
}

func (h *Handlers) ToggleJSON(c *fiber.Ctx) error {
	s, err := h.Gate.Toggle(h.session(c))
	if err != nil {
		return err
	}
	if !s.Admin {
		h.Drafts.Drop(s.ClientID)
	}
	return c.JSON(s)
}

func (h *Handlers) LoginJSON(c *fiber.Ctx) error {
	var body struct {
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	s, ok, err := h.Gate.AttemptLogin(h.session(c), body.Password)
	if err != nil {
		return err
	}
	status := fiber.StatusOK
	if !ok {
		status = fiber.StatusUnauthorized
	}
	return c.Status(status).JSON(s)
}

func (h *Handlers) LogoutJSON(c *fiber.Ctx) error {
	s, err := h.Gate.Logout(h.session(c))
	if err != nil {
		return err
	}
	h.Drafts.Drop(s.ClientID)
	return c.JSON(s)
}
