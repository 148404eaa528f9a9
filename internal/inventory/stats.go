package inventory

import "github.com/noah-isme/inventory-notify/internal/templates"

// Product is the subset of the backend product representation the dashboard reads.
type Product struct {
	ID               int      `json:"id"`
	Codigo           string   `json:"codigo"`
	Nombre           string   `json:"nombre"`
	CategoriaNombre  *string  `json:"categoria_nombre"`
	StockActual      int      `json:"stock_actual"`
	StockMinimo      int      `json:"stock_minimo"`
	FechaVencimiento *string  `json:"fecha_vencimiento"`
	NecesitaRestock  bool     `json:"necesita_restock"`
	DiasParaVencer   *int     `json:"dias_para_vencer"`
	EstaVencido      bool     `json:"esta_vencido"`
	ValorInventario  *float64 `json:"valor_inventario"`
}

type productsResponse struct {
	Productos []Product `json:"productos"`
	Total     int       `json:"total"`
}

// AlertStats mirrors GET /api/alertas/estadisticas.
type AlertStats struct {
	TotalAlertas    int            `json:"total_alertas"`
	AlertasActivas  int            `json:"alertas_activas"`
	AlertasNoLeidas int            `json:"alertas_no_leidas"`
	PorTipo         map[string]int `json:"por_tipo"`
	PorPrioridad    map[string]int `json:"por_prioridad"`
}

// Stats are the dashboard figures. Everything except ActiveAlerts is computed from
// the product list.
type Stats struct {
	TotalProducts  int
	InventoryValue float64
	LowStock       int
	OutOfStock     int
	ActiveAlerts   int
	UnreadAlerts   int
	ExpiringSoon   int
	AlreadyExpired int
}

// DeriveStats aggregates the product list. Products without a valor_inventario
// contribute zero to the inventory value.
func DeriveStats(products []Product, alerts AlertStats) Stats {
	s := Stats{
		TotalProducts: len(products),
		ActiveAlerts:  alerts.AlertasActivas,
		UnreadAlerts:  alerts.AlertasNoLeidas,
	}
	for _, p := range products {
		if p.ValorInventario != nil {
			s.InventoryValue += *p.ValorInventario
		}
		if p.NecesitaRestock {
			s.LowStock++
		}
		if p.StockActual == 0 {
			s.OutOfStock++
		}
		switch {
		case p.EstaVencido:
			s.AlreadyExpired++
		case p.DiasParaVencer != nil && *p.DiasParaVencer <= templates.UrgentThresholdDays:
			s.ExpiringSoon++
		}
	}
	return s
}

// Summary maps the figures onto the inventory report template.
func (s Stats) Summary() templates.Summary {
	value := s.InventoryValue
	return templates.Summary{
		TotalProducts:      s.TotalProducts,
		TotalValue:         &value,
		LowStockProducts:   s.LowStock,
		OutOfStockProducts: s.OutOfStock,
	}
}
