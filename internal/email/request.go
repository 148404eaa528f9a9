package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/noah-isme/inventory-notify/internal/templates"
)

// Recipients accepts either a single address or a list of addresses.
type Recipients []string

// UnmarshalJSON implements json.Unmarshaler. Entries that are not JSON strings
// are kept as their raw text so address validation reports them.
func (r *Recipients) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*r = nil
		return nil
	case len(trimmed) > 0 && trimmed[0] == '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		list := make(Recipients, 0, len(items))
		for _, item := range items {
			list = append(list, recipient(item))
		}
		*r = list
		return nil
	default:
		*r = Recipients{recipient(trimmed)}
		return nil
	}
}

func recipient(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return string(bytes.TrimSpace(raw))
	}
	return s
}

type sendRequest struct {
	To           Recipients      `json:"to" validate:"required,min=1,dive,email"`
	Subject      string          `json:"subject" validate:"required_without=Template"`
	Text         string          `json:"text" validate:"required_without_all=HTML Template"`
	HTML         string          `json:"html"`
	Template     string          `json:"template" validate:"omitempty,oneof=stockBajo vencimiento reporteInventario"`
	TemplateData json.RawMessage `json:"templateData" validate:"required_with=Template"`
}

func (req *sendRequest) normalize() {
	if bytes.Equal(bytes.TrimSpace(req.TemplateData), []byte("null")) {
		req.TemplateData = nil
	}
}

type productPayload struct {
	Nombre    string `json:"nombre" validate:"required"`
	Codigo    string `json:"codigo" validate:"required"`
	Categoria string `json:"categoria"`
	Stock     *int   `json:"stock" validate:"omitempty,min=0"`
}

func (p productPayload) product() templates.Product {
	return templates.Product{
		Name:     p.Nombre,
		Code:     p.Codigo,
		Category: p.Categoria,
		Stock:    p.Stock,
	}
}

type lowStockPayload struct {
	Producto    *productPayload `json:"producto" validate:"required"`
	StockActual *int            `json:"stockActual" validate:"required,min=0"`
	StockMinimo *int            `json:"stockMinimo" validate:"required,min=0"`
}

func (p lowStockPayload) data() templates.Data {
	product := p.Producto.product()
	product.Stock = nil
	return templates.LowStock{
		Product:      product,
		CurrentStock: *p.StockActual,
		MinimumStock: *p.StockMinimo,
	}
}

type expirationPayload struct {
	Producto         *productPayload `json:"producto" validate:"required"`
	DiasRestantes    *int            `json:"diasRestantes" validate:"required"`
	FechaVencimiento string          `json:"fechaVencimiento" validate:"required"`
}

func (p expirationPayload) data() templates.Data {
	return templates.Expiration{
		Product:        p.Producto.product(),
		DaysRemaining:  *p.DiasRestantes,
		ExpirationDate: p.FechaVencimiento,
	}
}

type summaryPayload struct {
	TotalProductos     *int     `json:"total_productos" validate:"required,min=0"`
	ValorTotal         *float64 `json:"valor_total_inventario" validate:"omitempty,min=0"`
	ProductosStockBajo *int     `json:"productos_stock_bajo" validate:"required,min=0"`
	ProductosSinStock  *int     `json:"productos_sin_stock" validate:"required,min=0"`
}

type reportPayload struct {
	Resumen         *summaryPayload `json:"resumen" validate:"required"`
	FechaGeneracion *time.Time      `json:"fechaGeneracion"`
}

func (p reportPayload) data() templates.Data {
	report := templates.InventoryReport{
		Summary: templates.Summary{
			TotalProducts:      *p.Resumen.TotalProductos,
			TotalValue:         p.Resumen.ValorTotal,
			LowStockProducts:   *p.Resumen.ProductosStockBajo,
			OutOfStockProducts: *p.Resumen.ProductosSinStock,
		},
	}
	if p.FechaGeneracion != nil {
		report.GeneratedAt = *p.FechaGeneracion
	}
	return report
}

type stockAlertRequest struct {
	To Recipients `json:"to" validate:"required,min=1,dive,email"`
	lowStockPayload
}

type expirationAlertRequest struct {
	To Recipients `json:"to" validate:"required,min=1,dive,email"`
	expirationPayload
}

type reportRequest struct {
	To Recipients `json:"to" validate:"required,min=1,dive,email"`
	reportPayload
}

// templatePayload is implemented by every typed templateData shape.
type templatePayload interface {
	data() templates.Data
}

func payloadFor(kind templates.Kind) (templatePayload, error) {
	switch kind {
	case templates.KindLowStock:
		return &lowStockPayload{}, nil
	case templates.KindExpiration:
		return &expirationPayload{}, nil
	case templates.KindInventoryReport:
		return &reportPayload{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", templates.ErrUnknownTemplate, kind)
	}
}
