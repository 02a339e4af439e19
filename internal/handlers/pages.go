package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"arkana/internal/domain"
	"arkana/internal/pricing"
	"arkana/internal/relay"
	u "arkana/internal/utils"
	"arkana/internal/views"
)

const inFlightMessage = "Ya estamos enviando tu solicitud. Esperá un momento."

func (h *Handlers) landingView(c *fiber.Ctx, d *pricing.Display) views.Landing {
	sess := h.session(c)
	return views.Landing{
		Page:        views.Page{RequestID: requestID(c), Admin: sess.Admin},
		Site:        h.Site,
		Tabs:        d.Tabs(),
		ActiveKey:   d.ActiveKey(),
		Active:      d.Active(),
		Session:     sess,
		Form:        views.FormState{Options: relay.ServiceOptions()},
		WhatsAppURL: "https://wa.me/" + h.Chooser.Number,
		PriceList:   h.PriceList.Enabled(),
	}
}

// Landing renders the home page. Query parameters: tab selects the pricing
// tab, pack=<key>/<tier> prefills the budget form, form=1 opens it and
// login=1 opens the admin prompt.
func (h *Handlers) Landing(c *fiber.Ctx) error {
	d := pricing.NewDisplay(h.Catalog.Snapshot(), c.Query("tab"))
	v := h.landingView(c, d)

	if c.Query("login") == "1" && !v.Session.Admin {
		v.Session.PromptVisible = true
	}
	if c.Query("form") == "1" {
		v.ShowForm = true
	}
	if s := c.Query("servicio"); s != "" {
		v.Form.Fields.Servicio = s
	}
	if pack := c.Query("pack"); pack != "" {
		key, tier, _ := strings.Cut(pack, "/")
		if sel, err := selectTier(d, key, tier); err == nil {
			out, _ := h.Chooser.Choose(sel, pricing.MethodEmail)
			v.Form.Fields = *out.Prefill
			v.ShowForm = true
			v.Tabs, v.ActiveKey, v.Active = d.Tabs(), d.ActiveKey(), d.Active()
		}
	}
	return h.render(c, fiber.StatusOK, views.PageLanding, v)
}

func selectTier(d *pricing.Display, key, tier string) (domain.Selection, error) {
	if err := d.SelectTab(key); err != nil {
		return domain.Selection{}, err
	}
	i, err := strconv.Atoi(tier)
	if err != nil {
		return domain.Selection{}, fmt.Errorf("%w: %q", domain.ErrTierNotFound, tier)
	}
	return d.Select(i)
}

// PackPrompt shows the contact method dialog for one tier.
func (h *Handlers) PackPrompt(c *fiber.Ctx) error {
	d := pricing.NewDisplay(h.Catalog.Snapshot(), "")
	sel, err := selectTier(d, c.Params("key"), c.Params("tier"))
	if err != nil {
		return asFiberError(err)
	}
	v := h.landingView(c, d)
	tier, _ := strconv.Atoi(c.Params("tier"))
	v.Prompt = &views.Prompt{Key: d.ActiveKey(), Tier: tier, Selection: sel}
	return h.render(c, fiber.StatusOK, views.PageLanding, v)
}

// ChoosePack resolves the contact dialog: the email path goes to the
// prefilled budget form, the WhatsApp path to the wa.me deep link.
func (h *Handlers) ChoosePack(c *fiber.Ctx) error {
	key, tier := c.Params("key"), c.Params("tier")
	d := pricing.NewDisplay(h.Catalog.Snapshot(), "")
	sel, err := selectTier(d, key, tier)
	if err != nil {
		return asFiberError(err)
	}
	out, err := h.Chooser.Choose(sel, pricing.Method(c.FormValue("method")))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	tab := "/?tab=" + url.QueryEscape(key)
	switch out.Method {
	case pricing.MethodEmail:
		return c.Redirect(tab+"&pack="+url.QueryEscape(key+"/"+tier)+"&form=1"+out.ScrollTo, fiber.StatusSeeOther)
	case pricing.MethodWhatsApp:
		return c.Redirect(out.URL, fiber.StatusSeeOther)
	default:
		return c.Redirect(tab+"#precios", fiber.StatusSeeOther)
	}
}

// SubmitBudget relays the budget form. A visitor can have one submission in
// flight at a time.
func (h *Handlers) SubmitBudget(c *fiber.Ctx) error {
	var req domain.BudgetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid form data")
	}

	d := pricing.NewDisplay(h.Catalog.Snapshot(), "")
	v := h.landingView(c, d)
	v.ShowForm = true
	v.Form.Fields = req

	key := ClientHash(c)
	if !h.InFlight.Acquire(key) {
		v.Form.Error = inFlightMessage
		return h.render(c, fiber.StatusTooManyRequests, views.PageLanding, v)
	}
	defer h.InFlight.Release(key)

	ctx, cancel := context.WithTimeout(c.UserContext(), h.Config.Mail.Timeout+5*time.Second)
	defer cancel()

	form := relay.NewForm(req)
	err := form.Submit(ctx, h.Sender)
	v.Form.Fields = form.Fields()
	v.Form.Notice = form.Notice()

	status := fiber.StatusOK
	switch {
	case errors.Is(err, domain.ErrMissingFields):
		v.Form.Error = "Completá los campos obligatorios: " + strings.Join(req.MissingFields(), ", ")
		status = fiber.StatusUnprocessableEntity
	case err != nil:
		u.Warn("Budget form relay failed", "error", err, "request_id", requestID(c))
		status = fiber.StatusBadGateway
	}
	return h.render(c, status, views.PageLanding, v)
}
