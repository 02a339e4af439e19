package relay

import (
	"bytes"
	"html/template"
	"strings"

	"arkana/internal/domain"
)

const noPhone = "No proporcionado"

// Email is a composed budget notification.
type Email struct {
	Subject string
	ReplyTo string
	HTML    string
}

var emailTmpl = template.Must(template.New("budget").Parse(`<h2>Nueva solicitud de presupuesto</h2>
<p><strong>Nombre:</strong> {{.Nombre}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Teléfono:</strong> {{.Telefono}}</p>
<p><strong>Servicio:</strong> {{.Servicio}}</p>
<p><strong>Mensaje:</strong></p>
<p>{{range $i, $line := .Lines}}{{if $i}}<br>{{end}}{{$line}}{{end}}</p>
`))

// Compose renders the notification for req. Every visitor supplied field is
// HTML escaped.
func Compose(req domain.BudgetRequest) (Email, error) {
	label := ServiceLabel(req.Servicio)
	phone := strings.TrimSpace(req.Telefono)
	if phone == "" {
		phone = noPhone
	}
	var buf bytes.Buffer
	err := emailTmpl.Execute(&buf, struct {
		Nombre, Email, Telefono, Servicio string
		Lines                             []string
	}{
		Nombre:   req.Nombre,
		Email:    req.Email,
		Telefono: phone,
		Servicio: label,
		Lines:    strings.Split(req.Mensaje, "\n"),
	})
	if err != nil {
		return Email{}, err
	}
	return Email{
		Subject: "Nueva solicitud de presupuesto - " + label,
		ReplyTo: req.Email,
		HTML:    buf.String(),
	}, nil
}
