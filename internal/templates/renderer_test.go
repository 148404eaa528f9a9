package templates_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/inventory-notify/internal/templates"
)

var fixedNow = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func newRenderer() *templates.Renderer {
	return templates.NewRenderer("en",
		templates.WithClock(func() time.Time { return fixedNow }),
		templates.WithLocation(time.UTC),
	)
}

func TestRenderLowStock(t *testing.T) {
	out, err := newRenderer().Render(templates.LowStock{
		Product:      templates.Product{Name: "Widget", Code: "W1"},
		CurrentStock: 2,
		MinimumStock: 10,
	})
	require.NoError(t, err)
	require.Contains(t, out.Subject, "Widget")
	for _, body := range []string{out.HTML, out.Text} {
		require.Contains(t, body, "Widget")
		require.Contains(t, body, "W1")
		require.Contains(t, body, "2 unidades")
		require.Contains(t, body, "10 unidades")
		require.Contains(t, body, "N/A")
		require.Contains(t, body, "15/03/2024 09:30:00")
	}
	require.Contains(t, out.HTML, "<strong>Stock actual:</strong> 2 unidades")
	require.Contains(t, out.Text, "Stock mínimo: 10 unidades")
}

func TestRenderLowStockEscapesHTML(t *testing.T) {
	out, err := newRenderer().Render(templates.LowStock{
		Product: templates.Product{Name: "<b>Tuerca</b>", Code: "T&1", Category: "Ferretería"},
	})
	require.NoError(t, err)
	require.NotContains(t, out.HTML, "<b>Tuerca</b>")
	require.Contains(t, out.HTML, "&lt;b&gt;Tuerca&lt;/b&gt;")
	require.Contains(t, out.Text, "<b>Tuerca</b>")
	require.Contains(t, out.Text, "Categoría: Ferretería")
}

func TestRenderExpirationUrgency(t *testing.T) {
	stock := 4
	cases := []struct {
		name   string
		days   int
		urgent bool
	}{
		{name: "expired", days: -3, urgent: true},
		{name: "today", days: 0, urgent: true},
		{name: "threshold", days: templates.UrgentThresholdDays, urgent: true},
		{name: "just after threshold", days: templates.UrgentThresholdDays + 1, urgent: false},
		{name: "far", days: 30, urgent: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := newRenderer().Render(templates.Expiration{
				Product:        templates.Product{Name: "Leche", Code: "L-9", Stock: &stock},
				DaysRemaining:  tc.days,
				ExpirationDate: "2024-03-20",
			})
			require.NoError(t, err)
			require.Contains(t, out.Subject, "Leche")
			require.Contains(t, out.Text, "2024-03-20")
			require.Contains(t, out.Text, "Stock actual: 4 unidades")
			require.Contains(t, out.Text, "Categoría: N/A")
			if tc.urgent {
				require.Contains(t, out.HTML, "URGENTE")
				require.Contains(t, out.Text, "URGENTE")
				require.Contains(t, out.HTML, "#721c24")
			} else {
				require.NotContains(t, out.HTML, "URGENTE")
				require.NotContains(t, out.Text, "URGENTE")
				require.Contains(t, out.HTML, "#0c5460")
			}
		})
	}
}

func TestRenderExpirationMissingStock(t *testing.T) {
	out, err := newRenderer().Render(templates.Expiration{
		Product:        templates.Product{Name: "Pan", Code: "P1"},
		DaysRemaining:  12,
		ExpirationDate: "2024-04-01",
	})
	require.NoError(t, err)
	require.Contains(t, out.Text, "Stock actual: N/A unidades")
}

func TestRenderInventoryReport(t *testing.T) {
	value := 1234567.5
	generated := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
	out, err := newRenderer().Render(templates.InventoryReport{
		Summary: templates.Summary{
			TotalProducts:      42,
			TotalValue:         &value,
			LowStockProducts:   5,
			OutOfStockProducts: 1,
		},
		GeneratedAt: generated,
	})
	require.NoError(t, err)
	require.Equal(t, "📊 Reporte de Inventario - 02/01/2024", out.Subject)
	require.Contains(t, out.Text, "Total de productos: 42")
	require.Contains(t, out.Text, "$1,234,567.5")
	require.Contains(t, out.Text, "Productos con stock bajo: 5")
	require.Contains(t, out.Text, "Productos sin stock: 1")
	require.Contains(t, out.HTML, "$1,234,567.5")
	require.Contains(t, out.Text, "Generado el 02/01/2024 15:04:05")
}

func TestRenderInventoryReportNilValue(t *testing.T) {
	out, err := newRenderer().Render(templates.InventoryReport{Summary: templates.Summary{TotalProducts: 3}})
	require.NoError(t, err)
	require.Contains(t, out.Text, "Valor total del inventario: $0")
	require.Contains(t, out.Subject, "15/03/2024")
}

func TestRenderNilData(t *testing.T) {
	_, err := newRenderer().Render(nil)
	require.True(t, errors.Is(err, templates.ErrUnknownTemplate))
}

func TestParseKind(t *testing.T) {
	for _, name := range templates.Names() {
		kind, err := templates.ParseKind(name)
		require.NoError(t, err)
		require.Equal(t, name, kind.String())
	}
	_, err := templates.ParseKind("newsletter")
	require.ErrorIs(t, err, templates.ErrUnknownTemplate)
}
