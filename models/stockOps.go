package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/svfabworks/factory_backend/storage"
	"github.com/svfabworks/factory_backend/utils"
)

var hundred = decimal.NewFromInt(100)

type NewStockItem struct {
	Name          string          `json:"name" binding:"required"`
	GroupId       *string         `json:"group_id"`
	Unit          string          `json:"unit"`
	Quantity      decimal.Decimal `json:"quantity"`
	Defective     decimal.Decimal `json:"defective"`
	CostPerUnit   decimal.Decimal `json:"cost_per_unit"`
	GstPercentage decimal.Decimal `json:"gst_percentage"`
	StockLimit    decimal.Decimal `json:"stock_limit"`
}

func structToDetails(v any) Details {
	b, err := json.Marshal(v)
	if err != nil {
		return Details{}
	}
	var d Details
	if err := json.Unmarshal(b, &d); err != nil {
		return Details{}
	}
	return d
}

func fetchStockItem(ctx context.Context, name string) (*StockItem, error) {
	item, err := storage.Get[StockItem](ctx, name)
	if err != nil {
		return nil, fmt.Errorf("stock item %q not found", name)
	}
	return item, nil
}

// CreateStock creates a new item; the name is the key.
func CreateStock(ctx context.Context, input *NewStockItem, username string) (*StockItem, error) {
	if input.Name == "" {
		return nil, errors.New("name is required")
	}
	if input.Quantity.IsNegative() || input.Defective.IsNegative() {
		return nil, errors.New("quantity and defective must not be negative")
	}
	if input.GstPercentage.IsNegative() || input.GstPercentage.GreaterThan(hundred) {
		return nil, errors.New("gst_percentage must be between 0 and 100")
	}
	if existing, err := storage.Get[StockItem](ctx, input.Name); err == nil && existing != nil {
		return nil, errors.New("stock item already exist")
	}
	if input.GroupId != nil && *input.GroupId != "" {
		if _, err := storage.Get[Group](ctx, *input.GroupId); err != nil {
			return nil, errors.New("group not found")
		}
	} else {
		input.GroupId = nil
	}

	now := utils.NowISTString()
	item := StockItem{
		ItemId:        input.Name,
		Name:          input.Name,
		GroupId:       input.GroupId,
		Unit:          input.Unit,
		Quantity:      input.Quantity,
		Defective:     input.Defective,
		CostPerUnit:   input.CostPerUnit,
		GstPercentage: input.GstPercentage,
		StockLimit:    input.StockLimit,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	item.Recompute()

	if err := storage.Create(ctx, &item); err != nil {
		if storage.IsDuplicateKey(err) {
			return nil, errors.New("stock item already exist")
		}
		return nil, err
	}
	if _, err := LogTransaction(ctx, OperationCreateStock, username, Details{
		"item_id":        item.ItemId,
		"quantity":       item.Quantity,
		"defective":      item.Defective,
		"cost_per_unit":  item.CostPerUnit,
		"gst_percentage": item.GstPercentage,
		"total_cost":     item.TotalCost,
	}); err != nil {
		return nil, err
	}
	if err := LogUndo(ctx, username, OperationCreateStock, Details{"item_id": item.ItemId}); err != nil {
		return nil, err
	}
	RequestProductionRecalc(ctx)
	return &item, nil
}

type UpdateStockInput struct {
	Name          string           `json:"name" binding:"required"`
	CostPerUnit   *decimal.Decimal `json:"cost_per_unit"`
	GstPercentage *decimal.Decimal `json:"gst_percentage"`
	Unit          *string          `json:"unit"`
	StockLimit    *decimal.Decimal `json:"stock_limit"`
	GroupId       *string          `json:"group_id"`
}

// UpdateStock applies a partial update of rate/gst/unit/limit and re-derives
// gst_amount and total_cost from the current quantity at the new rate. Past
// ledger rows keep their recorded values.
func UpdateStock(ctx context.Context, input *UpdateStockInput, username string) (*StockItem, error) {
	item, err := fetchStockItem(ctx, input.Name)
	if err != nil {
		return nil, err
	}
	oldState := *item

	if input.CostPerUnit != nil {
		if input.CostPerUnit.IsNegative() {
			return nil, errors.New("cost_per_unit must not be negative")
		}
		item.CostPerUnit = *input.CostPerUnit
	}
	if input.GstPercentage != nil {
		if input.GstPercentage.IsNegative() || input.GstPercentage.GreaterThan(hundred) {
			return nil, errors.New("gst_percentage must be between 0 and 100")
		}
		item.GstPercentage = *input.GstPercentage
	}
	if input.Unit != nil {
		item.Unit = *input.Unit
	}
	if input.StockLimit != nil {
		item.StockLimit = *input.StockLimit
	}
	if input.GroupId != nil {
		if *input.GroupId == "" {
			item.GroupId = nil
		} else {
			if _, err := storage.Get[Group](ctx, *input.GroupId); err != nil {
				return nil, errors.New("group not found")
			}
			item.GroupId = input.GroupId
		}
	}

	item.Recompute()
	item.UpdatedAt = utils.NowISTString()
	if err := storage.Put(ctx, item); err != nil {
		return nil, err
	}
	if _, err := LogTransaction(ctx, OperationUpdateStock, username, Details{
		"item_id": item.ItemId,
		"before":  oldState.Snapshot(),
		"after":   item.Snapshot(),
	}); err != nil {
		return nil, err
	}
	if err := LogUndo(ctx, username, OperationUpdateStock, Details{
		"item_id":   item.ItemId,
		"old_state": structToDetails(oldState),
	}); err != nil {
		return nil, err
	}
	RequestProductionRecalc(ctx)
	return item, nil
}

// DeleteStock removes the item; the full record is kept in the undo payload
// so the delete can be reversed.
func DeleteStock(ctx context.Context, name string, username string) error {
	item, err := fetchStockItem(ctx, name)
	if err != nil {
		return err
	}
	if err := storage.Delete[StockItem](ctx, name); err != nil {
		return err
	}
	if _, err := LogTransaction(ctx, OperationDeleteStock, username, Details{
		"item_id":  item.ItemId,
		"quantity": item.Quantity,
	}); err != nil {
		return err
	}
	if err := LogUndo(ctx, username, OperationDeleteStock, Details{
		"item_id": item.ItemId,
		"record":  structToDetails(*item),
	}); err != nil {
		return err
	}
	RequestProductionRecalc(ctx)
	return nil
}

// applyAddQuantity rolls quantity and cost forward for an inward of q.
// Returns (added_cost, gst_added).
func applyAddQuantity(item *StockItem, q decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	baseAdded := item.CostPerUnit.Mul(q)
	gstAdded := utils.RoundMoney(baseAdded.Mul(item.GstPercentage).Div(hundred))
	addedCost := utils.RoundMoney(baseAdded.Add(gstAdded))

	item.Quantity = item.Quantity.Add(q)
	item.TotalQuantity = item.Quantity.Add(item.Defective)
	item.GstAmount = utils.RoundMoney(item.GstAmount.Add(gstAdded))
	item.TotalCost = utils.RoundMoney(item.TotalCost.Add(addedCost))
	return addedCost, gstAdded
}

// applySubtractQuantity mirrors applyAddQuantity. With clamp set, quantity and
// costs floor at zero instead of failing (undo semantics).
func applySubtractQuantity(item *StockItem, q decimal.Decimal, clamp bool) (decimal.Decimal, decimal.Decimal, error) {
	if !clamp && item.Quantity.LessThan(q) {
		return decimal.Decimal{}, decimal.Decimal{}, fmt.Errorf(
			"insufficient stock for %s: available %s, required %s",
			item.ItemId, item.Quantity.String(), q.String())
	}
	effective := q
	if clamp && item.Quantity.LessThan(q) {
		effective = item.Quantity
	}
	baseRemoved := item.CostPerUnit.Mul(effective)
	gstRemoved := utils.RoundMoney(baseRemoved.Mul(item.GstPercentage).Div(hundred))
	removedCost := utils.RoundMoney(baseRemoved.Add(gstRemoved))

	item.Quantity = item.Quantity.Sub(effective)
	item.TotalQuantity = item.Quantity.Add(item.Defective)
	item.GstAmount = utils.ClampZero(utils.RoundMoney(item.GstAmount.Sub(gstRemoved)))
	item.TotalCost = utils.ClampZero(utils.RoundMoney(item.TotalCost.Sub(removedCost)))
	return removedCost, gstRemoved, nil
}

type AddStockQuantityInput struct {
	Name         string          `json:"name" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	SupplierName string          `json:"supplier_name" binding:"required"`
}

func AddStockQuantity(ctx context.Context, input *AddStockQuantityInput, username string) (*StockItem, error) {
	if !input.Quantity.IsPositive() {
		return nil, errors.New("quantity must be greater than zero")
	}
	if input.SupplierName == "" {
		return nil, errors.New("supplier_name is required")
	}
	item, err := fetchStockItem(ctx, input.Name)
	if err != nil {
		return nil, err
	}
	before := item.Snapshot()
	addedCost, gstAdded := applyAddQuantity(item, input.Quantity)
	item.UpdatedAt = utils.NowISTString()
	if err := storage.Put(ctx, item); err != nil {
		return nil, err
	}

	if _, err := LogTransaction(ctx, OperationAddStockQuantity, username, Details{
		"item_id":        item.ItemId,
		"quantity_added": input.Quantity,
		"cost_per_unit":  item.CostPerUnit,
		"gst_percentage": item.GstPercentage,
		"gst_amount":     gstAdded,
		"added_cost":     addedCost,
		"supplier_name":  input.SupplierName,
		"new_available":  item.Quantity,
		"before":         before,
		"after":          item.Snapshot(),
	}); err != nil {
		return nil, err
	}
	if err := LogUndo(ctx, username, OperationAddStockQuantity, Details{
		"item_id":        item.ItemId,
		"quantity_added": input.Quantity,
	}); err != nil {
		return nil, err
	}
	RequestProductionRecalc(ctx)
	return item, nil
}

type SubtractStockQuantityInput struct {
	Name     string          `json:"name" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

func SubtractStockQuantity(ctx context.Context, input *SubtractStockQuantityInput, username string) (*StockItem, error) {
	if !input.Quantity.IsPositive() {
		return nil, errors.New("quantity must be greater than zero")
	}
	item, err := fetchStockItem(ctx, input.Name)
	if err != nil {
		return nil, err
	}
	before := item.Snapshot()
	removedCost, gstRemoved, err := applySubtractQuantity(item, input.Quantity, false)
	if err != nil {
		return nil, err
	}
	item.UpdatedAt = utils.NowISTString()
	if err := storage.Put(ctx, item); err != nil {
		return nil, err
	}

	if _, err := LogTransaction(ctx, OperationSubtractStockQuantity, username, Details{
		"item_id":             item.ItemId,
		"quantity_subtracted": input.Quantity,
		"cost_per_unit":       item.CostPerUnit,
		"gst_amount":          gstRemoved,
		"subtracted_cost":     removedCost,
		"new_available":       item.Quantity,
		"before":              before,
		"after":               item.Snapshot(),
	}); err != nil {
		return nil, err
	}
	if err := LogUndo(ctx, username, OperationSubtractStockQuantity, Details{
		"item_id":             item.ItemId,
		"quantity_subtracted": input.Quantity,
	}); err != nil {
		return nil, err
	}
	RequestProductionRecalc(ctx)
	return item, nil
}

type DefectiveGoodsInput struct {
	Name      string          `json:"name" binding:"required"`
	Defective decimal.Decimal `json:"defective" binding:"required"`
}

// applyAddDefective carves defective units out of the available quantity;
// total_quantity is unchanged.
func applyAddDefective(item *StockItem, d decimal.Decimal) error {
	newDefective := item.Defective.Add(d)
	if newDefective.GreaterThan(item.TotalQuantity) {
		return fmt.Errorf("defective %s would exceed total quantity %s",
			newDefective.String(), item.TotalQuantity.String())
	}
	item.Defective = newDefective
	item.Quantity = item.TotalQuantity.Sub(newDefective)
	base := item.Quantity.Mul(item.CostPerUnit)
	item.GstAmount = utils.RoundMoney(base.Mul(item.GstPercentage).Div(hundred))
	item.TotalCost = utils.RoundMoney(base.Add(item.GstAmount))
	return nil
}

func applySubtractDefective(item *StockItem, d decimal.Decimal, clamp bool) error {
	if item.Defective.LessThan(d) {
		if !clamp {
			return fmt.Errorf("defective %s is less than %s", item.Defective.String(), d.String())
		}
		d = item.Defective
	}
	item.Defective = item.Defective.Sub(d)
	item.Quantity = item.TotalQuantity.Sub(item.Defective)
	base := item.Quantity.Mul(item.CostPerUnit)
	item.GstAmount = utils.RoundMoney(base.Mul(item.GstPercentage).Div(hundred))
	item.TotalCost = utils.RoundMoney(base.Add(item.GstAmount))
	return nil
}

func AddDefectiveGoods(ctx context.Context, input *DefectiveGoodsInput, username string) (*StockItem, error) {
	if !input.Defective.IsPositive() {
		return nil, errors.New("defective must be greater than zero")
	}
	item, err := fetchStockItem(ctx, input.Name)
	if err != nil {
		return nil, err
	}
	before := item.Snapshot()
	if err := applyAddDefective(item, input.Defective); err != nil {
		return nil, err
	}
	item.UpdatedAt = utils.NowISTString()
	if err := storage.Put(ctx, item); err != nil {
		return nil, err
	}

	if _, err := LogTransaction(ctx, OperationAddDefectiveGoods, username, Details{
		"item_id":         item.ItemId,
		"defective_added": input.Defective,
		"before":          before,
		"after":           item.Snapshot(),
	}); err != nil {
		return nil, err
	}
	if err := LogUndo(ctx, username, OperationAddDefectiveGoods, Details{
		"item_id":         item.ItemId,
		"defective_added": input.Defective,
	}); err != nil {
		return nil, err
	}
	RequestProductionRecalc(ctx)
	return item, nil
}

func SubtractDefectiveGoods(ctx context.Context, input *DefectiveGoodsInput, username string) (*StockItem, error) {
	if !input.Defective.IsPositive() {
		return nil, errors.New("defective must be greater than zero")
	}
	item, err := fetchStockItem(ctx, input.Name)
	if err != nil {
		return nil, err
	}
	before := item.Snapshot()
	if err := applySubtractDefective(item, input.Defective, false); err != nil {
		return nil, err
	}
	item.UpdatedAt = utils.NowISTString()
	if err := storage.Put(ctx, item); err != nil {
		return nil, err
	}

	if _, err := LogTransaction(ctx, OperationSubtractDefectiveGoods, username, Details{
		"item_id":              item.ItemId,
		"defective_subtracted": input.Defective,
		"before":               before,
		"after":                item.Snapshot(),
	}); err != nil {
		return nil, err
	}
	if err := LogUndo(ctx, username, OperationSubtractDefectiveGoods, Details{
		"item_id":              item.ItemId,
		"defective_subtracted": input.Defective,
	}); err != nil {
		return nil, err
	}
	RequestProductionRecalc(ctx)
	return item, nil
}

// GetAllStocks returns the catalogue via a segmented scan.
func GetAllStocks(ctx context.Context) ([]*StockItem, error) {
	return storage.SegmentScan[StockItem](ctx, "")
}

type InventoryStockRow struct {
	ItemId     string          `json:"item_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Unit       string          `json:"unit"`
	StockLimit decimal.Decimal `json:"stock_limit"`
	LowStock   bool            `json:"low_stock"`
}

// ListInventoryStock is the lightweight stock listing for dashboards: id,
// available quantity and the low-water flag.
func ListInventoryStock(ctx context.Context) ([]*InventoryStockRow, error) {
	items, err := GetAllStocks(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]*InventoryStockRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, &InventoryStockRow{
			ItemId:     item.ItemId,
			Quantity:   item.Quantity,
			Unit:       item.Unit,
			StockLimit: item.StockLimit,
			LowStock:   item.IsLowStock(),
		})
	}
	return rows, nil
}
