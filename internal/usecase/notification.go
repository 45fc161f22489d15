package usecase

import (
	"bytes"
	"html/template"

	"github.com/Victor-armando18/service-clearance/internal/domain"
)

var notificationTmpl = template.Must(template.New("notification").Parse(`<html><body>
<h2>Shipment {{.ID}}</h2>
<p>Status: <strong>{{.Status}}</strong></p>
<p>Current stage: {{.Stage}}</p>
{{- if .Reason}}
<p>Reason: {{.Reason}}</p>
{{- end}}
{{- if .Docs}}
<p>Documents requested:</p>
<ul>{{range .Docs}}<li>{{.Name}}</li>{{end}}</ul>
{{- end}}
</body></html>`))

func renderNotification(rec domain.ShipmentRecord) (string, error) {
	var buf bytes.Buffer
	err := notificationTmpl.Execute(&buf, map[string]any{
		"ID":     rec.ID,
		"Status": rec.Status,
		"Stage":  rec.Stage(),
		"Reason": rec.Reason,
		"Docs":   rec.AdditionalDocs,
	})
	return buf.String(), err
}
