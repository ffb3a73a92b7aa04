package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/svfabworks/factory_backend/storage"
	"github.com/svfabworks/factory_backend/utils"
)

// UndoAction is one entry of a user's bounded undo queue. At most
// maxActiveUndos entries stay ACTIVE per user; the oldest is evicted on
// overflow.
type UndoAction struct {
	UndoId      string        `gorm:"primaryKey;size:40" json:"undo_id"`
	Operation   OperationType `gorm:"size:40;not null" json:"operation"`
	UndoDetails Details       `gorm:"type:json" json:"undo_details"`
	Username    string        `gorm:"index;size:100;not null" json:"username"`
	Status      UndoStatus    `gorm:"type:enum('ACTIVE','UNDONE','DONE');default:ACTIVE" json:"status"`
	Timestamp   string        `gorm:"size:40;not null" json:"timestamp"`
}

const maxActiveUndos = 3

// activeUndosOldestFirst returns the user's ACTIVE records sorted by timestamp.
func activeUndosOldestFirst(ctx context.Context, username string) ([]*UndoAction, error) {
	records, err := storage.Query[UndoAction](ctx, "username = ? AND status = ?", username, UndoStatusActive)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp < records[j].Timestamp
	})
	return records, nil
}

// EvictForInsert picks which of the existing ACTIVE records must go so one
// more fits under the bound. Pure so the choice is testable.
func EvictForInsert(active []*UndoAction) []*UndoAction {
	if len(active) < maxActiveUndos {
		return nil
	}
	return active[:len(active)-maxActiveUndos+1]
}

// LogUndo records the inverse payload for a just-completed mutation, evicting
// the user's oldest ACTIVE records beyond the bound. The eviction is
// non-atomic under concurrency; the next insert re-prunes.
func LogUndo(ctx context.Context, username string, op OperationType, undoDetails Details) error {
	active, err := activeUndosOldestFirst(ctx, username)
	if err != nil {
		return err
	}
	for _, evict := range EvictForInsert(active) {
		if err := storage.Delete[UndoAction](ctx, evict.UndoId); err != nil {
			return err
		}
	}
	record := UndoAction{
		UndoId:      uuid.NewString(),
		Operation:   op,
		UndoDetails: undoDetails,
		Username:    username,
		Status:      UndoStatusActive,
		Timestamp:   utils.NowISTString(),
	}
	return storage.Create(ctx, &record)
}

type UndoActionInput struct {
	UndoId *string `json:"undo_id"`
}

// UndoActionResult reports which record was undone.
type UndoActionResult struct {
	UndoId    string        `json:"undo_id"`
	Operation OperationType `json:"operation"`
	ItemId    string        `json:"item_id,omitempty"`
}

// PerformUndoAction applies the inverse of the caller's chosen (or most
// recent) ACTIVE undo record. A failed inverse leaves the record ACTIVE so the
// operator can retry or skip.
func PerformUndoAction(ctx context.Context, username string, input *UndoActionInput) (*UndoActionResult, error) {
	var record *UndoAction
	if input != nil && input.UndoId != nil && *input.UndoId != "" {
		found, err := storage.Get[UndoAction](ctx, *input.UndoId)
		if err != nil {
			return nil, errors.New("undo record not found")
		}
		if found.Username != username {
			return nil, errors.New("undo record belongs to another user")
		}
		if found.Status != UndoStatusActive {
			return nil, errors.New("undo record is not active")
		}
		record = found
	} else {
		active, err := activeUndosOldestFirst(ctx, username)
		if err != nil {
			return nil, err
		}
		if len(active) == 0 {
			return nil, errors.New("no active undo records")
		}
		record = active[len(active)-1]
	}

	if err := applyInverse(ctx, record, username); err != nil {
		return nil, err
	}

	if err := storage.Update[UndoAction](ctx, record.UndoId, map[string]interface{}{
		"status": UndoStatusDone,
	}); err != nil {
		return nil, err
	}
	RequestProductionRecalc(ctx)
	return &UndoActionResult{
		UndoId:    record.UndoId,
		Operation: record.Operation,
		ItemId:    record.UndoDetails.String("item_id"),
	}, nil
}

func applyInverse(ctx context.Context, record *UndoAction, username string) error {
	d := record.UndoDetails
	switch record.Operation {
	case OperationCreateStock:
		return storage.Delete[StockItem](ctx, d.String("item_id"))

	case OperationUpdateStock:
		return restoreStockItem(ctx, d.Map("old_state"))

	case OperationDeleteStock:
		return restoreStockItem(ctx, d.Map("record"))

	case OperationAddStockQuantity:
		return adjustStockQuantity(ctx, d.String("item_id"), d.Decimal("quantity_added"), false)

	case OperationSubtractStockQuantity:
		return adjustStockQuantity(ctx, d.String("item_id"), d.Decimal("quantity_subtracted"), true)

	case OperationAddDefectiveGoods:
		return adjustDefective(ctx, d.String("item_id"), d.Decimal("defective_added"), false)

	case OperationSubtractDefectiveGoods:
		return adjustDefective(ctx, d.String("item_id"), d.Decimal("defective_subtracted"), true)

	case OperationPushToProduction:
		_, err := UndoProduction(ctx, d.String("push_id"), username)
		return err

	default:
		return fmt.Errorf("operation %s cannot be undone", record.Operation)
	}
}

func restoreStockItem(ctx context.Context, state map[string]interface{}) error {
	if state == nil {
		return errors.New("undo record is missing the saved stock state")
	}
	b, err := json.Marshal(state)
	if err != nil {
		return err
	}
	var item StockItem
	if err := json.Unmarshal(b, &item); err != nil {
		return err
	}
	if item.ItemId == "" {
		return errors.New("undo record is missing the saved stock state")
	}
	return storage.Put(ctx, &item)
}

// adjustStockQuantity applies the quantity inverse: subtract what an add put
// in (clamped at zero) or re-add what a subtract took out.
func adjustStockQuantity(ctx context.Context, itemId string, qty decimal.Decimal, add bool) error {
	item, err := fetchStockItem(ctx, itemId)
	if err != nil {
		return err
	}
	if add {
		applyAddQuantity(item, qty)
	} else {
		if _, _, err := applySubtractQuantity(item, qty, true); err != nil {
			return err
		}
	}
	item.UpdatedAt = utils.NowISTString()
	return storage.Put(ctx, item)
}

func adjustDefective(ctx context.Context, itemId string, qty decimal.Decimal, add bool) error {
	item, err := fetchStockItem(ctx, itemId)
	if err != nil {
		return err
	}
	if add {
		if err := applyAddDefective(item, qty); err != nil {
			return err
		}
	} else {
		if err := applySubtractDefective(item, qty, true); err != nil {
			return err
		}
	}
	item.UpdatedAt = utils.NowISTString()
	return storage.Put(ctx, item)
}
