package pricing

import (
	"fmt"
	"net/url"
	"strings"

	"arkana/internal/domain"
)

// Method is how a visitor wants to follow up on a selected tier.
type Method string

const (
	MethodEmail    Method = "email"
	MethodWhatsApp Method = "whatsapp"
	MethodCancel   Method = "cancel"
)

// BudgetAnchor is the budget form section.
const BudgetAnchor = "#presupuesto"

// Outcome tells the page what to do after the contact prompt closes.
type Outcome struct {
	Method Method
	// Prefill is set for MethodEmail.
	Prefill *domain.BudgetRequest
	// ScrollTo is the section to bring into view, if any.
	ScrollTo string
	// URL is opened in a new browsing context when set.
	URL string
}

// Chooser resolves the contact prompt. Number is the WhatsApp destination in
// international format without "+".
type Chooser struct {
	Number string
}

func (c Chooser) Choose(sel domain.Selection, m Method) (Outcome, error) {
	switch m {
	case MethodEmail:
		p := Prefill(sel)
		return Outcome{Method: m, Prefill: &p, ScrollTo: BudgetAnchor}, nil
	case MethodWhatsApp:
		return Outcome{Method: m, URL: WhatsAppLink(c.Number, sel)}, nil
	case MethodCancel:
		return Outcome{Method: m}, nil
	default:
		return Outcome{}, fmt.Errorf("unknown contact method %q", m)
	}
}

// Prefill builds the budget form contents for a selection.
func Prefill(sel domain.Selection) domain.BudgetRequest {
	return domain.BudgetRequest{
		Servicio: sel.ServiceKey,
		Mensaje:  fmt.Sprintf("Me interesa el pack %s - %s (%s). ", sel.Service, sel.Tier, sel.Price),
	}
}

// WhatsAppLink returns the wa.me deep link with the greeting for sel.
func WhatsAppLink(number string, sel domain.Selection) string {
	msg := fmt.Sprintf("Hola! Me interesa el pack %s - %s (%s). ¿Podrían darme más información?",
		sel.Service, sel.Tier, sel.Price)
	return "https://wa.me/" + number + "?text=" + encodeComponent(msg)
}

var componentUnescape = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeComponent escapes s the way browsers' encodeURIComponent does.
func encodeComponent(s string) string {
	return componentUnescape.Replace(url.QueryEscape(s))
}
