// Package templates renders the transactional emails sent by the notification service.
package templates

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const notAvailable = "N/A"

const (
	dateLayout      = "02/01/2006"
	timestampLayout = "02/01/2006 15:04:05"
)

// Rendered is the subject/HTML/plain-text triple produced for a template.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

// Renderer turns template data into a Rendered email. It holds no mutable state.
type Renderer struct {
	printer  *message.Printer
	location *time.Location
	now      func() time.Time
}

// Option customises a Renderer.
type Option func(*Renderer)

// WithClock overrides the clock used for footer timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLocation sets the timezone used when formatting dates.
func WithLocation(loc *time.Location) Option {
	return func(r *Renderer) {
		if loc != nil {
			r.location = loc
		}
	}
}

// NewRenderer builds a renderer formatting numbers for the given BCP 47 locale.
// Unparseable locales fall back to Spanish.
func NewRenderer(locale string, opts ...Option) *Renderer {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		tag = language.Spanish
	}
	r := &Renderer{
		printer:  message.NewPrinter(tag),
		location: time.Local,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render produces the email for the given template data.
func (r *Renderer) Render(data Data) (Rendered, error) {
	switch d := data.(type) {
	case LowStock:
		return r.renderLowStock(d)
	case Expiration:
		return r.renderExpiration(d)
	case InventoryReport:
		return r.renderReport(d)
	case nil:
		return Rendered{}, fmt.Errorf("%w: missing template data", ErrUnknownTemplate)
	default:
		return Rendered{}, fmt.Errorf("%w: %T", ErrUnknownTemplate, data)
	}
}

type lowStockView struct {
	Name         string
	Code         string
	Category     string
	CurrentStock int
	MinimumStock int
	Footer       string
}

func (r *Renderer) renderLowStock(d LowStock) (Rendered, error) {
	view := lowStockView{
		Name:         d.Product.Name,
		Code:         d.Product.Code,
		Category:     orNA(d.Product.Category),
		CurrentStock: d.CurrentStock,
		MinimumStock: d.MinimumStock,
		Footer:       r.generatedFooter(),
	}
	return r.execute(KindLowStock, "🚨 Alerta: Stock bajo - "+d.Product.Name, view)
}

type expirationView struct {
	Name           string
	Code           string
	Category       string
	Stock          string
	DaysRemaining  int
	ExpirationDate string
	UrgentPrefix   string
	ActionStyle    htmltemplate.CSS
	Footer         string
}

func (r *Renderer) renderExpiration(d Expiration) (Rendered, error) {
	view := expirationView{
		Name:           d.Product.Name,
		Code:           d.Product.Code,
		Category:       orNA(d.Product.Category),
		Stock:          notAvailable,
		DaysRemaining:  d.DaysRemaining,
		ExpirationDate: d.ExpirationDate,
		ActionStyle:    "background-color: #d1ecf1; color: #0c5460; padding: 15px; border-radius: 5px; margin-top: 20px;",
		Footer:         r.generatedFooter(),
	}
	if d.Product.Stock != nil {
		view.Stock = strconv.Itoa(*d.Product.Stock)
	}
	if d.Urgent() {
		view.UrgentPrefix = "URGENTE - "
		view.ActionStyle = "background-color: #f8d7da; color: #721c24; padding: 15px; border-radius: 5px; margin-top: 20px;"
	}
	return r.execute(KindExpiration, "⏰ Alerta: Producto próximo a vencer - "+d.Product.Name, view)
}

type reportView struct {
	Date               string
	TotalProducts      int
	TotalValue         string
	LowStockProducts   int
	OutOfStockProducts int
	Footer             string
}

func (r *Renderer) renderReport(d InventoryReport) (Rendered, error) {
	generated := d.GeneratedAt
	if generated.IsZero() {
		generated = r.now()
	}
	generated = generated.In(r.location)
	view := reportView{
		Date:               generated.Format(dateLayout),
		TotalProducts:      d.Summary.TotalProducts,
		TotalValue:         r.FormatAmount(d.Summary.TotalValue),
		LowStockProducts:   d.Summary.LowStockProducts,
		OutOfStockProducts: d.Summary.OutOfStockProducts,
		Footer:             "Generado el " + generated.Format(timestampLayout),
	}
	return r.execute(KindInventoryReport, "📊 Reporte de Inventario - "+view.Date, view)
}

// FormatAmount formats a monetary amount for the renderer's locale. Nil renders as "0".
func (r *Renderer) FormatAmount(amount *float64) string {
	if amount == nil {
		return "0"
	}
	return r.printer.Sprintf("%v", number.Decimal(*amount, number.MaxFractionDigits(2)))
}

func (r *Renderer) execute(kind Kind, subject string, view any) (Rendered, error) {
	l, ok := layouts[kind]
	if !ok {
		return Rendered{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, kind)
	}
	var html, text bytes.Buffer
	if err := l.html.Execute(&html, view); err != nil {
		return Rendered{}, fmt.Errorf("render %s html: %w", kind, err)
	}
	if err := l.text.Execute(&text, view); err != nil {
		return Rendered{}, fmt.Errorf("render %s text: %w", kind, err)
	}
	return Rendered{Subject: subject, HTML: html.String(), Text: text.String()}, nil
}

func (r *Renderer) generatedFooter() string {
	return "Generado automáticamente el " + r.now().In(r.location).Format(timestampLayout)
}

func orNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return notAvailable
	}
	return value
}
