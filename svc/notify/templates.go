package notify

import (
	"bytes"
	"html/template"
	"io"
	texttemplate "text/template"
)

var welcomeHTML = template.Must(template.New("welcome").Parse(`<p>Hello{{with .Name}} {{.}}{{end}},</p>
<p>Thank you for choosing {{.Product}}. Your <strong>{{.Plan}}</strong> plan is now active{{with .Until}} until {{.}}{{end}}.</p>
<p><a href="{{.DashboardURL}}">Open your dashboard</a> to start your first staff wellbeing survey.</p>`))

var welcomeText = texttemplate.Must(texttemplate.New("welcome").Parse(`Hello{{with .Name}} {{.}}{{end}},

Thank you for choosing {{.Product}}. Your {{.Plan}} plan is now active{{with .Until}} until {{.}}{{end}}.

Open your dashboard to start your first staff wellbeing survey: {{.DashboardURL}}
`))

var invoiceText = texttemplate.Must(texttemplate.New("invoice").Parse(`A school has asked to pay by invoice.

School:        {{.School}}
Contact:       {{.Contact}} <{{.Email}}>
Address:       {{.Address}}
Plan:          {{.Plan}} ({{.Purchase}})
Amount:        {{.Amount}}
Payment id:    {{.PaymentID}}
User id:       {{.UserID}}

Raise the invoice, then mark the payment completed to grant access.
`))

type welcomeData struct {
	Name         string
	Product      string
	Plan         string
	Until        string
	DashboardURL string
}

type invoiceData struct {
	School    string
	Contact   string
	Email     string
	Address   string
	Plan      string
	Purchase  string
	Amount    string
	PaymentID string
	UserID    string
}

type executor interface {
	Execute(w io.Writer, data any) error
}

func render(t executor, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
