package handlers

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"arkana/internal/catalog"
	"arkana/internal/domain"
	"arkana/internal/pricing"
	u "arkana/internal/utils"
	"arkana/internal/views"
)

// editorErrors are the messages the admin panel can show after a redirect.
var editorErrors = map[string]string{
	"notfound": "La categoría no existe.",
	"exists":   "Ya existe una categoría con esa clave.",
	"invalid":  "La clave debe tener letras o números.",
	"last":     "No se puede eliminar la última categoría.",
	"nodraft":  "No hay ninguna categoría en edición.",
	"tier":     "El plan indicado no existe.",
	"failed":   "No se pudieron guardar los cambios.",
}

func editorErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrCategoryNotFound):
		return "notfound"
	case errors.Is(err, domain.ErrCategoryExists):
		return "exists"
	case errors.Is(err, domain.ErrInvalidCategoryKey):
		return "invalid"
	case errors.Is(err, domain.ErrLastCategory):
		return "last"
	case errors.Is(err, domain.ErrNoDraft):
		return "nodraft"
	case errors.Is(err, domain.ErrTierNotFound), errors.Is(err, domain.ErrUnknownTierField):
		return "tier"
	default:
		return "failed"
	}
}

func (h *Handlers) editor(c *fiber.Ctx) *catalog.Editor {
	return h.Drafts.For(ClientID(c))
}

// backToPanel redirects to the admin panel, carrying err as a message code.
func backToPanel(c *fiber.Ctx, err error) error {
	if err == nil {
		return c.Redirect("/admin", fiber.StatusSeeOther)
	}
	u.Warn("Editor operation failed", "error", err, "path", c.Path(), "request_id", requestID(c))
	return c.Redirect("/admin?error="+editorErrorCode(err), fiber.StatusSeeOther)
}

// AdminPanel lists the categories, or shows the draft being edited.
func (h *Handlers) AdminPanel(c *fiber.Ctx) error {
	snap := h.Catalog.Snapshot()
	tabs := pricing.NewDisplay(snap, "").Tabs()

	v := views.AdminPanel{
		Page:      views.Page{Title: "Administración", RequestID: requestID(c), Admin: true},
		CanDelete: snap.Len() > 1,
		Error:     editorErrors[c.Query("error")],
	}
	for _, t := range tabs {
		cat, _ := snap.Get(t.Key)
		v.Categories = append(v.Categories, views.AdminCategory{
			Key: t.Key, Label: t.Label, Emoji: t.Emoji, Title: cat.Title, Tiers: len(cat.Tiers),
		})
	}
	if d, ok := h.editor(c).Draft(); ok {
		v.Draft = &d
		v.DraftLabel = d.Key
		for _, t := range tabs {
			if t.Key == d.Key {
				v.DraftLabel = t.Label
			}
		}
	}
	return h.render(c, fiber.StatusOK, views.PageAdmin, v)
}

func (h *Handlers) CreateCategory(c *fiber.Ctx) error {
	_, err := h.editor(c).CreateCategory(c.FormValue("key"))
	return backToPanel(c, err)
}

func (h *Handlers) DeleteCategory(c *fiber.Ctx) error {
	return backToPanel(c, h.editor(c).DeleteCategory(c.Params("key")))
}

func (h *Handlers) StartEdit(c *fiber.Ctx) error {
	return backToPanel(c, h.editor(c).StartEdit(c.Params("key")))
}

func (h *Handlers) ResetCatalog(c *fiber.Ctx) error {
	_, err := h.Catalog.Reset()
	return backToPanel(c, err)
}

// postField reads a urlencoded form value and reports whether it was sent.
func postField(c *fiber.Ctx, key string) (string, bool) {
	args := c.Request().PostArgs()
	if !args.Has(key) {
		return "", false
	}
	return string(args.Peek(key)), true
}

// SaveDraft applies the submitted editor form to the draft, then runs the
// button the admin pressed.
func (h *Handlers) SaveDraft(c *fiber.Ctx) error {
	ed := h.editor(c)
	if err := applyDraftForm(c, ed); err != nil {
		return backToPanel(c, err)
	}

	action := c.FormValue("action")
	name, arg, _ := strings.Cut(action, ":")
	var err error
	switch name {
	case "commit":
		var cat domain.Category
		if cat, err = ed.Commit(); err == nil {
			return c.Redirect("/?tab="+url.QueryEscape(cat.Key)+"#precios", fiber.StatusSeeOther)
		}
	case "cancel":
		ed.Cancel()
	case "add-tier":
		err = ed.AddTier()
	case "remove-tier":
		var i int
		if i, err = strconv.Atoi(arg); err == nil {
			err = ed.RemoveTier(i)
		}
	case "add-feature":
		var i int
		if i, err = strconv.Atoi(arg); err == nil {
			err = ed.AddFeature(i)
		}
	case "remove-feature":
		ti, fi, _ := strings.Cut(arg, ":")
		var i, f int
		if i, err = strconv.Atoi(ti); err == nil {
			if f, err = strconv.Atoi(fi); err == nil {
				err = ed.RemoveFeature(i, f)
			}
		}
	case "":
	default:
		err = fmt.Errorf("unknown editor action %q", action)
	}
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		err = fmt.Errorf("%w: %s", domain.ErrTierNotFound, arg)
	}
	return backToPanel(c, err)
}

func applyDraftForm(c *fiber.Ctx, ed *catalog.Editor) error {
	d, ok := ed.Draft()
	if !ok {
		return domain.ErrNoDraft
	}
	if v, ok := postField(c, "title"); ok {
		if err := ed.SetTitle(v); err != nil {
			return err
		}
	}
	if v, ok := postField(c, "blurb"); ok {
		if err := ed.SetBlurb(v); err != nil {
			return err
		}
	}
	for i, t := range d.Tiers {
		fields := map[string]string{
			catalog.FieldName:      fmt.Sprintf("tier_name_%d", i),
			catalog.FieldPrice:     fmt.Sprintf("tier_price_%d", i),
			catalog.FieldPriceNote: fmt.Sprintf("tier_note_%d", i),
		}
		for field, input := range fields {
			if v, ok := postField(c, input); ok {
				if err := ed.UpdateTierField(i, field, v); err != nil {
					return err
				}
			}
		}
		for f := range t.Features {
			if v, ok := postField(c, fmt.Sprintf("feature_%d_%d", i, f)); ok {
				if err := ed.UpdateFeature(i, f, v); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// JSON editor API. Every call answers with the current draft or catalog.

type valueBody struct {
	Value string `json:"value"`
}

type tierFieldBody struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type keyBody struct {
	Key string `json:"key"`
}

func (h *Handlers) draftJSON(c *fiber.Ctx, ed *catalog.Editor, err error) error {
	if err != nil {
		return asFiberError(err)
	}
	d, ok := ed.Draft()
	if !ok {
		return c.JSON(fiber.Map{"draft": nil})
	}
	return c.JSON(fiber.Map{"key": d.Key, "draft": d})
}

func intParam(c *fiber.Ctx, name string) (int, error) {
	i, err := c.ParamsInt(name)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return i, nil
}

func (h *Handlers) GetDraft(c *fiber.Ctx) error {
	return h.draftJSON(c, h.editor(c), nil)
}

func (h *Handlers) StartEditJSON(c *fiber.Ctx) error {
	ed := h.editor(c)
	return h.draftJSON(c, ed, ed.StartEdit(c.Params("key")))
}

func (h *Handlers) SetTitleJSON(c *fiber.Ctx) error {
	var body valueBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	ed := h.editor(c)
	return h.draftJSON(c, ed, ed.SetTitle(body.Value))
}

func (h *Handlers) SetBlurbJSON(c *fiber.Ctx) error {
	var body valueBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	ed := h.editor(c)
	return h.draftJSON(c, ed, ed.SetBlurb(body.Value))
}

func (h *Handlers) AddTierJSON(c *fiber.Ctx) error {
	ed := h.editor(c)
	return h.draftJSON(c, ed, ed.AddTier())
}

func (h *Handlers) RemoveTierJSON(c *fiber.Ctx) error {
	i, err := intParam(c, "tier")
	if err != nil {
		return err
	}
	ed := h.editor(c)
	return h.draftJSON(c, ed, ed.RemoveTier(i))
}

func (h *Handlers) UpdateTierJSON(c *fiber.Ctx) error {
	i, err := intParam(c, "tier")
	if err != nil {
		return err
	}
	var body tierFieldBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	ed := h.editor(c)
	return h.draftJSON(c, ed, ed.UpdateTierField(i, body.Field, body.Value))
}

func (h *Handlers) AddFeatureJSON(c *fiber.Ctx) error {
	i, err := intParam(c, "tier")
	if err != nil {
		return err
	}
	ed := h.editor(c)
	return h.draftJSON(c, ed, ed.AddFeature(i))
}

func (h *Handlers) UpdateFeatureJSON(c *fiber.Ctx) error {
	i, err := intParam(c, "tier")
	if err != nil {
		return err
	}
	f, err := intParam(c, "feature")
	if err != nil {
		return err
	}
	var body valueBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	ed := h.editor(c)
	return h.draftJSON(c, ed, ed.UpdateFeature(i, f, body.Value))
}

func (h *Handlers) RemoveFeatureJSON(c *fiber.Ctx) error {
	i, err := intParam(c, "tier")
	if err != nil {
		return err
	}
	f, err := intParam(c, "feature")
	if err != nil {
		return err
	}
	ed := h.editor(c)
	return h.draftJSON(c, ed, ed.RemoveFeature(i, f))
}

func (h *Handlers) CommitJSON(c *fiber.Ctx) error {
	cat, err := h.editor(c).Commit()
	if err != nil {
		return asFiberError(err)
	}
	return c.JSON(fiber.Map{"key": cat.Key, "category": cat})
}

func (h *Handlers) CancelJSON(c *fiber.Ctx) error {
	ed := h.editor(c)
	ed.Cancel()
	return h.draftJSON(c, ed, nil)
}

func (h *Handlers) CreateCategoryJSON(c *fiber.Ctx) error {
	var body keyBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	cat, err := h.editor(c).CreateCategory(body.Key)
	if err != nil {
		return asFiberError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"key": cat.Key, "category": cat})
}

func (h *Handlers) DeleteCategoryJSON(c *fiber.Ctx) error {
	if err := h.editor(c).DeleteCategory(c.Params("key")); err != nil {
		return asFiberError(err)
	}
	return c.JSON(h.Catalog.Snapshot())
}

func (h *Handlers) ResetCatalogJSON(c *fiber.Ctx) error {
	cat, err := h.Catalog.Reset()
	if err != nil {
		return err
	}
	return c.JSON(cat)
}
