package domain

import "strings"

// Selection is produced when a visitor picks a tier and consumed by the
// budget form prefill.
type Selection struct {
	Service    string `json:"service"`
	Tier       string `json:"tier"`
	Price      string `json:"price"`
	ServiceKey string `json:"serviceKey"`
}

// CustomService is the servicio value for projects outside the catalog.
const CustomService = "personalizado"

// BudgetRequest is the contact form payload relayed to the studio mailbox.
type BudgetRequest struct {
	Nombre   string `json:"nombre" form:"nombre"`
	Email    string `json:"email" form:"email"`
	Telefono string `json:"telefono,omitempty" form:"telefono"`
	Servicio string `json:"servicio" form:"servicio"`
	Mensaje  string `json:"mensaje" form:"mensaje"`
}

// MissingFields lists the required fields that are blank, in form order.
func (r BudgetRequest) MissingFields() []string {
	var missing []string
	required := []struct {
		name  string
		value string
	}{
		{"nombre", r.Nombre},
		{"email", r.Email},
		{"servicio", r.Servicio},
		{"mensaje", r.Mensaje},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}
