package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/svfabworks/factory_backend/config"
	"github.com/svfabworks/factory_backend/storage"
	"github.com/svfabworks/factory_backend/utils"
)

// SnapshotRow is one item's state inside an opening or closing snapshot.
type SnapshotRow struct {
	ItemId   string          `json:"item_id"`
	ItemName string          `json:"item_name"`
	Quantity decimal.Decimal `json:"quantity"`
	Amount   decimal.Decimal `json:"amount"`
}

// snapshotForDate finds the one snapshot transaction for (operation, date).
// The ledger holds at most one thanks to the upsert in saveSnapshot.
func snapshotForDate(ctx context.Context, op OperationType, date string) (*Transaction, error) {
	return storage.First[Transaction](ctx, "operation_type = ? AND date = ?", op, date)
}

func buildSnapshotRows(items []*StockItem) ([]SnapshotRow, decimal.Decimal, decimal.Decimal) {
	rows := make([]SnapshotRow, 0, len(items))
	totalQty := decimal.Zero
	totalAmount := decimal.Zero
	for _, item := range items {
		amount := utils.RoundMoney(item.Quantity.Mul(item.CostPerUnit))
		rows = append(rows, SnapshotRow{
			ItemId:   item.ItemId,
			ItemName: item.Name,
			Quantity: item.Quantity,
			Amount:   amount,
		})
		totalQty = totalQty.Add(item.Quantity)
		totalAmount = totalAmount.Add(amount)
	}
	return rows, totalQty, utils.RoundMoney(totalAmount)
}

// saveSnapshot upserts the per-date snapshot transaction. The date-scoped
// lock keeps a concurrent duplicate from racing the lookup and writing two
// rows for the same day.
func saveSnapshot(ctx context.Context, op OperationType, username string, details Details) (*Transaction, error) {
	date := utils.TodayIST()

	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, "snapshot:"+string(op)+":"+date, 10*time.Second, nil)
		if err == nil {
			defer lock.Release(ctx)
		}
	}

	existing, err := snapshotForDate(ctx, op, date)
	if err == nil {
		existing.Details = details
		existing.Username = username
		existing.Timestamp = utils.NowISTString()
		if err := storage.Put(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if !errors.Is(err, utils.ErrorRecordNotFound) {
		return nil, err
	}
	return LogTransaction(ctx, op, username, details)
}

// SaveOpeningStock freezes every item's quantity and value at the start of
// the business day. Calling it again the same day replaces the snapshot.
func SaveOpeningStock(ctx context.Context, username string) (*Transaction, error) {
	items, err := GetAllStocks(ctx)
	if err != nil {
		return nil, err
	}
	rows, totalQty, totalAmount := buildSnapshotRows(items)
	return saveSnapshot(ctx, OperationSaveOpeningStock, username, Details{
		"per_item_opening":     rows,
		"total_opening_qty":    totalQty,
		"total_opening_amount": totalAmount,
		"item_count":           len(rows),
	})
}

// SaveClosingStock records end-of-day state. It refuses to run before the
// day's opening snapshot exists so the daily report always has both ends.
func SaveClosingStock(ctx context.Context, username string) (*Transaction, error) {
	if _, err := snapshotForDate(ctx, OperationSaveOpeningStock, utils.TodayIST()); err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, errors.New("Opening stock must be saved before closing stock")
		}
		return nil, err
	}
	items, err := GetAllStocks(ctx)
	if err != nil {
		return nil, err
	}
	rows, totalQty, totalAmount := buildSnapshotRows(items)
	return saveSnapshot(ctx, OperationSaveClosingStock, username, Details{
		"per_item_closing":     rows,
		"total_closing_qty":    totalQty,
		"total_closing_amount": totalAmount,
		"item_count":           len(rows),
	})
}

// OpeningQuantities returns the per-item opening quantities recorded for a
// date, or an empty map when no snapshot exists.
func OpeningQuantities(ctx context.Context, date string) (map[string]decimal.Decimal, error) {
	txn, err := snapshotForDate(ctx, OperationSaveOpeningStock, date)
	if errors.Is(err, utils.ErrorRecordNotFound) {
		return map[string]decimal.Decimal{}, nil
	}
	if err != nil {
		return nil, err
	}
	opening := map[string]decimal.Decimal{}
	switch rows := txn.Details["per_item_opening"].(type) {
	case []SnapshotRow:
		for _, row := range rows {
			opening[row.ItemId] = row.Quantity
		}
	case []interface{}:
		for _, entry := range rows {
			row, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			itemId, _ := row["item_id"].(string)
			if itemId == "" {
				continue
			}
			opening[itemId] = Details(row).Decimal("quantity")
		}
	}
	return opening, nil
}
