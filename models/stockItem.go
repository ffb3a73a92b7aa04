package models

import (
	"github.com/shopspring/decimal"

	"github.com/svfabworks/factory_backend/utils"
)

// StockItem is the live stock record for one raw material. item_id doubles as
// the display name. Monetary fields are re-derived on every full write; the
// incremental mutations in stockOps.go roll them forward instead so the ledger
// arithmetic stays reproducible.
type StockItem struct {
	ItemId        string          `gorm:"primaryKey;size:100" json:"item_id"`
	Name          string          `gorm:"size:100;not null" json:"name"`
	GroupId       *string         `gorm:"index;size:100" json:"group_id"`
	Unit          string          `gorm:"size:20" json:"unit"`
	Quantity      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	Defective     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"defective"`
	TotalQuantity decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_quantity"`
	CostPerUnit   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost_per_unit"`
	GstPercentage decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"gst_percentage"`
	GstAmount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"gst_amount"`
	TotalCost     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_cost"`
	StockLimit    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"stock_limit"`
	CreatedAt     string          `gorm:"size:40" json:"created_at"`
	UpdatedAt     string          `gorm:"size:40" json:"updated_at"`
}

// Recompute derives total_quantity, gst_amount and total_cost from quantity,
// cost_per_unit and gst_percentage.
func (s *StockItem) Recompute() {
	s.TotalQuantity = s.Quantity.Add(s.Defective)
	base := s.Quantity.Mul(s.CostPerUnit)
	s.GstAmount = utils.RoundMoney(base.Mul(s.GstPercentage).Div(decimal.NewFromInt(100)))
	s.TotalCost = utils.RoundMoney(base.Add(s.GstAmount))
}

// Snapshot captures the fields reported in ledger before/after detail blocks.
func (s *StockItem) Snapshot() Details {
	return Details{
		"quantity":       s.Quantity,
		"defective":      s.Defective,
		"total_quantity": s.TotalQuantity,
		"gst_amount":     s.GstAmount,
		"total_cost":     s.TotalCost,
	}
}

// IsLowStock reports whether available quantity has fallen to the low-water
// threshold.
func (s *StockItem) IsLowStock() bool {
	return s.StockLimit.IsPositive() && s.Quantity.LessThanOrEqual(s.StockLimit)
}

// GstFor computes the GST portion for a quantity moved at the item's rate.
func (s *StockItem) GstFor(qty decimal.Decimal) decimal.Decimal {
	base := s.CostPerUnit.Mul(qty)
	return utils.RoundMoney(base.Mul(s.GstPercentage).Div(decimal.NewFromInt(100)))
}
