package models

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/svfabworks/factory_backend/storage"
	"github.com/svfabworks/factory_backend/utils"
)

// Transaction is one row of the append-only ledger. The IST calendar date is
// the partition key every report filters on; details carries the
// operation-specific payload keyed by operation_type.
type Transaction struct {
	TransactionId string        `gorm:"primaryKey;size:40" json:"transaction_id"`
	OperationType OperationType `gorm:"index;size:40;not null" json:"operation_type"`
	Date          string        `gorm:"index;size:10;not null" json:"date"`
	Timestamp     string        `gorm:"size:40;not null" json:"timestamp"`
	Username      string        `gorm:"index;size:100" json:"username"`
	Details       Details       `gorm:"type:json" json:"details"`
}

// LogTransaction appends one ledger row. Rows are never updated afterwards
// except by the snapshot upsert and the explicit purge.
func LogTransaction(ctx context.Context, op OperationType, username string, details Details) (*Transaction, error) {
	txn := Transaction{
		TransactionId: uuid.NewString(),
		OperationType: op,
		Date:          utils.TodayIST(),
		Timestamp:     utils.NowISTString(),
		Username:      username,
		Details:       details,
	}
	if err := storage.Create(ctx, &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

// TransactionsForDate returns the ledger partition for one date.
func TransactionsForDate(ctx context.Context, date string) ([]*Transaction, error) {
	return storage.Query[Transaction](ctx, "date = ?", date)
}

// TransactionsBetween returns the ledger over [start, end], both inclusive.
func TransactionsBetween(ctx context.Context, start, end string) ([]*Transaction, error) {
	return storage.Query[Transaction](ctx, "date BETWEEN ? AND ?", start, end)
}

// TransactionsSince returns everything dated on or after start. The monthly
// grids need this open-ended window to back-compute opening balances.
func TransactionsSince(ctx context.Context, start string) ([]*Transaction, error) {
	return storage.Query[Transaction](ctx, "date >= ?", start)
}

// GetAllStockTransactions scans the full ledger, newest first.
func GetAllStockTransactions(ctx context.Context) ([]*Transaction, error) {
	txns, err := storage.SegmentScan[Transaction](ctx, "")
	if err != nil {
		return nil, err
	}
	SortTransactions(txns, false)
	return txns, nil
}

// GetTodayLogs returns today's ledger partition, oldest first.
func GetTodayLogs(ctx context.Context) ([]*Transaction, error) {
	txns, err := TransactionsForDate(ctx, utils.TodayIST())
	if err != nil {
		return nil, err
	}
	SortTransactions(txns, true)
	return txns, nil
}

// SortTransactions orders by timestamp; ascending when asc is true.
func SortTransactions(txns []*Transaction, asc bool) {
	sort.SliceStable(txns, func(i, j int) bool {
		if asc {
			return txns[i].Timestamp < txns[j].Timestamp
		}
		return txns[i].Timestamp > txns[j].Timestamp
	})
}

// ReferencesItem reports whether the transaction touches the item, either as
// details.item_id or as a key of details.deductions.
func (t *Transaction) ReferencesItem(itemId string) bool {
	if t.Details.String("item_id") == itemId {
		return true
	}
	deductions := t.Details.DecimalMap("deductions")
	_, ok := deductions[itemId]
	return ok
}

const purgeConfirmation = "DELETE_ALL_TRANSACTIONS"

// DeleteTransactionData wipes the ledger, the undo queue and the push records.
// Guarded by an exact confirmation string and restricted to admins upstream.
func DeleteTransactionData(ctx context.Context, confirm string) error {
	if confirm != purgeConfirmation {
		return errors.New("confirmation mismatch: send confirm=\"" + purgeConfirmation + "\"")
	}
	if err := storage.DeleteWhere[Transaction](ctx, "1 = 1"); err != nil {
		return err
	}
	if err := storage.DeleteWhere[UndoAction](ctx, "1 = 1"); err != nil {
		return err
	}
	return storage.DeleteWhere[PushRecord](ctx, "1 = 1")
}
