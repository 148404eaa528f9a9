package templates

import "time"

// UrgentThresholdDays is the number of remaining days at or below which an expiration alert is urgent.
const UrgentThresholdDays = 7

// Data is the closed set of template payloads understood by the Renderer.
type Data interface {
	Kind() Kind
	sealed()
}

// Product describes the product an alert refers to. Category and Stock are optional.
type Product struct {
	Name     string
	Code     string
	Category string
	Stock    *int
}

// LowStock feeds the low-stock alert template.
type LowStock struct {
	Product      Product
	CurrentStock int
	MinimumStock int
}

// Expiration feeds the expiration alert template. DaysRemaining is negative once expired.
type Expiration struct {
	Product        Product
	DaysRemaining  int
	ExpirationDate string
}

// Urgent reports whether the alert crosses the urgency threshold.
func (e Expiration) Urgent() bool {
	return e.DaysRemaining <= UrgentThresholdDays
}

// Summary aggregates inventory figures for the report template.
type Summary struct {
	TotalProducts      int
	TotalValue         *float64
	LowStockProducts   int
	OutOfStockProducts int
}

// InventoryReport feeds the inventory report template.
type InventoryReport struct {
	Summary     Summary
	GeneratedAt time.Time
}

func (LowStock) Kind() Kind        { return KindLowStock }
func (Expiration) Kind() Kind      { return KindExpiration }
func (InventoryReport) Kind() Kind { return KindInventoryReport }

func (LowStock) sealed()        {}
func (Expiration) sealed()      {}
func (InventoryReport) sealed() {}
