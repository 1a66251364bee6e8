package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductRequest alta o edición de producto.
type ProductRequest struct {
	SKU                 string           `json:"sku"`
	Name                string           `json:"name"`
	Category            string           `json:"category,omitempty"`
	UnitOfMeasure       string           `json:"unit_of_measure,omitempty"`
	MinStock            decimal.Decimal  `json:"min_stock"`
	DefaultPurchaseCost *decimal.Decimal `json:"default_purchase_cost,omitempty"`
	DefaultSalePrice    *decimal.Decimal `json:"default_sale_price,omitempty"`
	LeadTimeDays        int              `json:"lead_time_days"`
}

// ProductResponse producto del catálogo.
type ProductResponse struct {
	ID                  string           `json:"id"`
	SKU                 string           `json:"sku"`
	Name                string           `json:"name"`
	Category            string           `json:"category,omitempty"`
	UnitOfMeasure       string           `json:"unit_of_measure,omitempty"`
	MinStock            decimal.Decimal  `json:"min_stock"`
	DefaultPurchaseCost *decimal.Decimal `json:"default_purchase_cost,omitempty"`
	DefaultSalePrice    *decimal.Decimal `json:"default_sale_price,omitempty"`
	LeadTimeDays        int              `json:"lead_time_days"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// LocationRequest alta de ubicación.
type LocationRequest struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
}

// LocationResponse ubicación del negocio.
type LocationResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
