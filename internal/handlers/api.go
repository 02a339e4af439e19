package handlers

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"arkana/internal/pricelist"
	u "arkana/internal/utils"
	"arkana/internal/views"
)

// Catalog serves the catalog as an ordered JSON object keyed by category.
func (h *Handlers) CatalogJSON(c *fiber.Ctx) error {
	return c.JSON(h.Catalog.Snapshot())
}

// PriceListPDF renders the current catalog as a downloadable PDF.
func (h *Handlers) PriceListPDF(c *fiber.Ctx) error {
	if !h.PriceList.Enabled() {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	}

	data := views.PriceList{
		Categories: h.Catalog.Snapshot().Categories(),
		Date:       time.Now().Format("02/01/2006"),
	}
	if h.Site != nil {
		data.Extras = h.Site.Extras.HTML
	}
	var html bytes.Buffer
	if err := h.Views.Render(&html, views.PagePriceList, data); err != nil {
		return err
	}

	pdf, err := h.PriceList.PDF(c.UserContext(), html.String())
	if err != nil {
		switch {
		case errors.Is(err, pricelist.ErrDisabled):
			return fiber.NewError(fiber.StatusNotFound, "Not Found")
		case errors.Is(err, context.DeadlineExceeded):
			u.Error("Price list timeout", "timeout_secs", h.PriceList.Config.TimeoutSecs, "error", err)
			return fiber.NewError(fiber.StatusRequestTimeout, "Price list rendering took too long")
		default:
			u.Error("Price list generation failed", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Price list generation failed")
		}
	}

	u.Info("Price list served", "bytes", len(pdf), "request_id", requestID(c))
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, "inline; filename=arkana-precios.pdf")
	return c.Send(pdf)
}
