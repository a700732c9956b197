package notify

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/talkincode/storefront/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// StatusTitle PROCESSING -> Processing
func StatusTitle(s domain.OrderStatus) string {
	return titleCaser.String(strings.ToLower(string(s)))
}

var funcs = template.FuncMap{
	"money":  func(d decimal.Decimal) string { return "$" + d.StringFixed(2) },
	"status": StatusTitle,
}

var orderCreatedTpl = template.Must(template.New("order_created").Funcs(funcs).Parse(`<h2>Thank you for your order!</h2>
<p>Your order has been received and is being processed.</p>
<p><strong>Tracking code:</strong> {{.TrackingCode}}</p>
<table cellpadding="6" style="border-collapse:collapse">
<tr><th align="left">Product</th><th>Qty</th><th align="right">Price</th><th align="right">Subtotal</th></tr>
{{range .Items}}<tr><td>{{.Name}}</td><td align="center">{{.Quantity}}</td><td align="right">{{money .Price}}</td><td align="right">{{money .LineTotal}}</td></tr>
{{end}}</table>
<p><strong>Total:</strong> {{money .Total}}</p>
<p><strong>Shipping to:</strong> {{.ShippingAddr}}</p>
{{if .TrackURL}}<p><a href="{{.TrackURL}}">Track your order</a></p>{{end}}
`))

var statusChangedTpl = template.Must(template.New("status_changed").Funcs(funcs).Parse(`<h2>Order update</h2>
<p>Your order <strong>{{.TrackingCode}}</strong> is now <strong>{{status .To}}</strong>.</p>
{{if .TrackURL}}<p><a href="{{.TrackURL}}">View order status</a></p>{{end}}
`))

func renderOrderCreated(s OrderSummary) (string, error) {
	var buf bytes.Buffer
	if err := orderCreatedTpl.Execute(&buf, s); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderStatusChanged(u StatusUpdate) (string, error) {
	var buf bytes.Buffer
	if err := statusChangedTpl.Execute(&buf, u); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func orderCreatedSubject(s OrderSummary) string {
	return "Order confirmation " + s.TrackingCode
}

func statusChangedSubject(u StatusUpdate) string {
	return "Order " + u.TrackingCode + " is now " + StatusTitle(u.To)
}
