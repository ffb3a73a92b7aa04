package models

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/svfabworks/factory_backend/storage"
	"github.com/svfabworks/factory_backend/utils"
)

// PushRecord captures one production run: which product, how many units,
// and exactly what was deducted from stock. An ACTIVE record can be undone,
// which restores every deduction and flips the record to UNDONE.
type PushRecord struct {
	PushId                string          `gorm:"primaryKey;size:40" json:"push_id"`
	ProductId             string          `gorm:"index;size:40" json:"product_id"`
	ProductName           string          `gorm:"size:100" json:"product_name"`
	Quantity              decimal.Decimal `gorm:"type:decimal(20,4)" json:"quantity"`
	Deductions            DecimalMap      `gorm:"type:json" json:"deductions"`
	ProductionCostPerUnit decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"production_cost_per_unit"`
	TotalProductionCost   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_production_cost"`
	Username              string          `gorm:"index;size:100" json:"username"`
	Status                PushStatus      `gorm:"index;size:10" json:"status"`
	Date                  string          `gorm:"index;size:10" json:"date"`
	Timestamp             string          `gorm:"size:40" json:"timestamp"`
	UndoneAt              string          `gorm:"size:40" json:"undone_at,omitempty"`
	UndoneBy              string          `gorm:"size:100" json:"undone_by,omitempty"`
}

type PushToProductionInput struct {
	ProductId             string           `json:"product_id" binding:"required"`
	Quantity              decimal.Decimal  `json:"quantity" binding:"required"`
	ProductionCostPerUnit *decimal.Decimal `json:"production_cost_per_unit"`
}

// ErrInsufficientStock reports the first component, in item-id order, that
// blocks a production run.
type ErrInsufficientStock struct {
	ItemId    string
	Available decimal.Decimal
	Required  decimal.Decimal
}

func (e *ErrInsufficientStock) Error() string {
	return fmt.Sprintf("insufficient stock of %s: available %s, required %s",
		e.ItemId, e.Available.String(), e.Required.String())
}

// firstShortfall checks every required deduction against what the items hold
// and returns the first insufficient one in item-id order. A nil item counts
// as zero available.
func firstShortfall(required DecimalMap, items map[string]*StockItem) *ErrInsufficientStock {
	for _, itemId := range utils.SortedKeys(map[string]decimal.Decimal(required)) {
		need := required[itemId]
		item := items[itemId]
		if item == nil {
			return &ErrInsufficientStock{ItemId: itemId, Available: decimal.Zero, Required: need}
		}
		if item.Quantity.LessThan(need) {
			return &ErrInsufficientStock{ItemId: itemId, Available: item.Quantity, Required: need}
		}
	}
	return nil
}

// PushToProduction consumes stock for a production run. Every required
// deduction is checked before anything is written, so a shortfall on any
// component leaves stock untouched.
func PushToProduction(ctx context.Context, input *PushToProductionInput, username string) (*PushRecord, error) {
	if !input.Quantity.IsPositive() {
		return nil, errors.New("quantity must be greater than zero")
	}
	product, err := storage.Get[Product](ctx, input.ProductId)
	if err != nil {
		return nil, errors.New("product not found")
	}
	if len(product.StockNeeded) == 0 {
		return nil, errors.New("product has no components to consume")
	}

	required := DecimalMap{}
	for itemId, perUnit := range product.StockNeeded {
		required[itemId] = perUnit.Mul(input.Quantity)
	}

	items := make(map[string]*StockItem, len(required))
	for itemId := range required {
		item, err := fetchStockItem(ctx, itemId)
		if err != nil {
			continue
		}
		items[itemId] = item
	}
	if short := firstShortfall(required, items); short != nil {
		return nil, short
	}

	perUnitCost := decimal.Zero
	for itemId, perUnit := range product.StockNeeded {
		perUnitCost = perUnitCost.Add(items[itemId].CostPerUnit.Mul(perUnit))
	}
	if input.ProductionCostPerUnit != nil {
		perUnitCost = *input.ProductionCostPerUnit
	}

	for itemId, need := range required {
		item := items[itemId]
		if _, _, err := applySubtractQuantity(item, need, true); err != nil {
			return nil, err
		}
		if err := storage.Put(ctx, item); err != nil {
			return nil, err
		}
	}

	record := PushRecord{
		PushId:                uuid.NewString(),
		ProductId:             product.ProductId,
		ProductName:           product.ProductName,
		Quantity:              input.Quantity,
		Deductions:            required,
		ProductionCostPerUnit: utils.RoundMoney(perUnitCost),
		TotalProductionCost:   utils.RoundMoney(perUnitCost.Mul(input.Quantity)),
		Username:              username,
		Status:                PushStatusActive,
		Date:                  utils.TodayIST(),
		Timestamp:             utils.NowISTString(),
	}
	if err := storage.Create(ctx, &record); err != nil {
		return nil, err
	}

	if _, err := LogTransaction(ctx, OperationPushToProduction, username, Details{
		"push_id":                  record.PushId,
		"product_id":               record.ProductId,
		"product_name":             record.ProductName,
		"quantity":                 record.Quantity,
		"deductions":               map[string]decimal.Decimal(record.Deductions),
		"production_cost_per_unit": record.ProductionCostPerUnit,
		"total_production_cost":    record.TotalProductionCost,
	}); err != nil {
		return nil, err
	}
	if err := LogUndo(ctx, username, OperationPushToProduction, Details{
		"push_id": record.PushId,
	}); err != nil {
		return nil, err
	}
	RequestProductionRecalc(ctx)
	return &record, nil
}

// UndoProduction restores every deduction of an ACTIVE push and marks it
// UNDONE. Undoing an already-undone push is an error, not a no-op.
func UndoProduction(ctx context.Context, pushId string, username string) (*PushRecord, error) {
	if pushId == "" {
		return nil, errors.New("push_id is required")
	}
	record, err := storage.Get[PushRecord](ctx, pushId)
	if err != nil {
		return nil, errors.New("push record not found")
	}
	if record.Status != PushStatusActive {
		return nil, fmt.Errorf("push %s is not active", pushId)
	}

	for itemId, qty := range record.Deductions {
		item, err := fetchStockItem(ctx, itemId)
		if err != nil {
			return nil, err
		}
		applyAddQuantity(item, qty)
		if err := storage.Put(ctx, item); err != nil {
			return nil, err
		}
	}

	record.Status = PushStatusUndone
	record.UndoneAt = utils.NowISTString()
	record.UndoneBy = username
	if err := storage.Put(ctx, record); err != nil {
		return nil, err
	}

	if _, err := LogTransaction(ctx, OperationUndoProduction, username, Details{
		"push_id":      record.PushId,
		"product_id":   record.ProductId,
		"product_name": record.ProductName,
		"quantity":     record.Quantity,
		"deductions":   map[string]decimal.Decimal(record.Deductions),
	}); err != nil {
		return nil, err
	}
	RequestProductionRecalc(ctx)
	return record, nil
}

// DeletePushToProduction removes a push record without touching stock.
// Admin-only; meant for cleaning up bad history, not for reversing a run.
func DeletePushToProduction(ctx context.Context, pushId string) error {
	if _, err := storage.Get[PushRecord](ctx, pushId); err != nil {
		return errors.New("push record not found")
	}
	return storage.Delete[PushRecord](ctx, pushId)
}

func sortPushRecords(records []*PushRecord) []*PushRecord {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp < records[j].Timestamp
	})
	return records
}

func GetDailyPushToProduction(ctx context.Context, date string) ([]*PushRecord, error) {
	if date == "" {
		date = utils.TodayIST()
	}
	records, err := storage.Query[PushRecord](ctx, "date = ?", date)
	if err != nil {
		return nil, err
	}
	return sortPushRecords(records), nil
}

func GetWeeklyPushToProduction(ctx context.Context) ([]*PushRecord, error) {
	start, end := utils.LastNDays(7)
	records, err := storage.Query[PushRecord](ctx, "date BETWEEN ? AND ?", start, end)
	if err != nil {
		return nil, err
	}
	return sortPushRecords(records), nil
}

func GetMonthlyPushToProduction(ctx context.Context, month string) ([]*PushRecord, error) {
	start, end, err := utils.MonthBounds(month)
	if err != nil {
		return nil, err
	}
	records, err := storage.Query[PushRecord](ctx, "date BETWEEN ? AND ?", start, end)
	if err != nil {
		return nil, err
	}
	return sortPushRecords(records), nil
}

// ProductionSummaryRow aggregates a month of pushes for one product.
// Undone pushes are excluded.
type ProductionSummaryRow struct {
	ProductName    string          `json:"product_name"`
	TotalQuantity  decimal.Decimal `json:"total_quantity"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	PushCount      int             `json:"push_count"`
	TotalDeducted  DecimalMap      `json:"total_deducted"`
}

func GetMonthlyProductionSummary(ctx context.Context, month string) (map[string]*ProductionSummaryRow, error) {
	records, err := GetMonthlyPushToProduction(ctx, month)
	if err != nil {
		return nil, err
	}
	summary := map[string]*ProductionSummaryRow{}
	for _, record := range records {
		if record.Status != PushStatusActive {
			continue
		}
		row, ok := summary[record.ProductName]
		if !ok {
			row = &ProductionSummaryRow{
				ProductName:   record.ProductName,
				TotalDeducted: DecimalMap{},
			}
			summary[record.ProductName] = row
		}
		row.TotalQuantity = row.TotalQuantity.Add(record.Quantity)
		row.TotalCost = utils.RoundMoney(row.TotalCost.Add(record.TotalProductionCost))
		row.PushCount++
		for itemId, qty := range record.Deductions {
			row.TotalDeducted[itemId] = row.TotalDeducted[itemId].Add(qty)
		}
	}
	return summary, nil
}
