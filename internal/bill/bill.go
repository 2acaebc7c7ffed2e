// Package bill renders an order as a standalone HTML document that buyers
// and sellers can download and print.
package bill

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tbourn/roomie-mart-backend/internal/domain"
)

// Data is the view model of a bill.
type Data struct {
	Order    domain.OrderWithParties
	Currency string
	IssuedAt time.Time
}

// Filename returns the download name of the bill for orderID.
func Filename(orderID uint64) string {
	return fmt.Sprintf("order_%d_bill.html", orderID)
}

// Render executes the bill template. A zero IssuedAt defaults to now.
func Render(d Data) ([]byte, error) {
	if d.IssuedAt.IsZero() {
		d.IssuedAt = time.Now().UTC()
	}
	var buf bytes.Buffer
	if err := billTmpl.Execute(&buf, d); err != nil {
		return nil, fmt.Errorf("render bill: %w", err)
	}
	return buf.Bytes(), nil
}

var billTmpl = template.Must(template.New("bill").Funcs(template.FuncMap{
	"money": func(cur string, v decimal.Decimal) string {
		if cur == "" {
			return v.StringFixed(2)
		}
		return cur + " " + v.StringFixed(2)
	},
	"date": func(t time.Time) string { return t.UTC().Format("2006-01-02 15:04 MST") },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Order #{{.Order.ID}} bill</title>
<style>
body{font-family:sans-serif;margin:2rem;color:#222}
table{border-collapse:collapse;width:100%;margin-top:1rem}
th,td{border:1px solid #ccc;padding:.5rem;text-align:left}
.right{text-align:right}
</style>
</head>
<body>
<h1>Roomie Mart</h1>
<h2>Bill for order #{{.Order.ID}}</h2>
<p>Transaction: <code>{{.Order.TransactionRef}}</code><br>
Order date: {{date .Order.CreatedAt}}<br>
Issued: {{date .IssuedAt}}<br>
Status: {{.Order.Status}}</p>
<table>
<tr><th>Buyer</th><td>{{.Order.BuyerName}}{{with .Order.BuyerEmail}} &lt;{{.}}&gt;{{end}}</td></tr>
<tr><th>Seller</th><td>{{.Order.SellerName}}{{with .Order.SellerEmail}} &lt;{{.}}&gt;{{end}}</td></tr>
</table>
<table>
<tr><th>Item</th><th class="right">Unit price</th><th class="right">Qty</th><th class="right">Total</th></tr>
<tr><td>{{.Order.ItemTitle}}</td><td class="right">{{money .Currency .Order.UnitPrice}}</td><td class="right">{{.Order.Quantity}}</td><td class="right">{{money .Currency .Order.Total}}</td></tr>
</table>
</body>
</html>
`))
