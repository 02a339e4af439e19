package relay

import "arkana/internal/domain"

var serviceLabels = map[string]string{
	"book":               "Book de fotos (retrato)",
	"producto":           "Foto producto / catálogo",
	"redes":              "Redes sociales (plan mensual)",
	"eventos":            "Cobertura de eventos",
	domain.CustomService: "Proyecto personalizado",
}

// ServiceLabel maps a servicio key to its human readable label. Unknown keys
// are returned unchanged.
func ServiceLabel(key string) string {
	if label, ok := serviceLabels[key]; ok {
		return label
	}
	return key
}

// ServiceOption is one entry of the servicio select.
type ServiceOption struct {
	Key   string
	Label string
}

// ServiceOptions lists the servicio choices offered by the budget form.
func ServiceOptions() []ServiceOption {
	keys := []string{"book", "producto", "redes", "eventos", domain.CustomService}
	out := make([]ServiceOption, 0, len(keys))
	for _, k := range keys {
		out = append(out, ServiceOption{Key: k, Label: serviceLabels[k]})
	}
	return out
}
