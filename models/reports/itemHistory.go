package reports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/svfabworks/factory_backend/models"
)

// HistoryEvent is one ledger entry touching the item, annotated with the
// quantity it moved in the relevant direction.
type HistoryEvent struct {
	TransactionId string          `json:"transaction_id"`
	OperationType string          `json:"operation_type"`
	Date          string          `json:"date"`
	Timestamp     string          `json:"timestamp"`
	Username      string          `json:"username"`
	Quantity      decimal.Decimal `json:"quantity"`
	Details       models.Details  `json:"details"`
}

// HistoryTotals accumulates every movement class over the filtered window.
type HistoryTotals struct {
	Added                decimal.Decimal `json:"added"`
	Subtracted           decimal.Decimal `json:"subtracted"`
	DefectiveAdded       decimal.Decimal `json:"defective_added"`
	DefectiveSubtracted  decimal.Decimal `json:"defective_subtracted"`
	ConsumedByProduction decimal.Decimal `json:"consumed_by_production"`
}

type ItemHistory struct {
	ItemId string          `json:"item_id"`
	Events []*HistoryEvent `json:"events"`
	Totals HistoryTotals   `json:"totals"`
}

type ItemHistoryInput struct {
	ItemId   string `json:"item_id" binding:"required"`
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
	Order    string `json:"order"`
}

// GetItemHistory replays the ledger for one item. Events come back oldest
// first unless order is "desc".
func GetItemHistory(ctx context.Context, input *ItemHistoryInput) (*ItemHistory, error) {
	var txns []*models.Transaction
	var err error
	switch {
	case input.DateFrom != "" && input.DateTo != "":
		txns, err = models.TransactionsBetween(ctx, input.DateFrom, input.DateTo)
	case input.DateFrom != "":
		txns, err = models.TransactionsSince(ctx, input.DateFrom)
	default:
		txns, err = models.GetAllStockTransactions(ctx)
	}
	if err != nil {
		return nil, err
	}
	if input.DateTo != "" && input.DateFrom == "" {
		filtered := txns[:0]
		for _, txn := range txns {
			if txn.Date <= input.DateTo {
				filtered = append(filtered, txn)
			}
		}
		txns = filtered
	}

	history := ItemHistory{ItemId: input.ItemId, Events: []*HistoryEvent{}}
	for _, txn := range byTimestamp(txns) {
		if !txn.ReferencesItem(input.ItemId) {
			continue
		}
		event := HistoryEvent{
			TransactionId: txn.TransactionId,
			OperationType: string(txn.OperationType),
			Date:          txn.Date,
			Timestamp:     txn.Timestamp,
			Username:      txn.Username,
			Details:       txn.Details,
		}
		switch txn.OperationType {
		case models.OperationAddStockQuantity:
			event.Quantity = txn.Details.Decimal("quantity_added")
			history.Totals.Added = history.Totals.Added.Add(event.Quantity)
		case models.OperationSubtractStockQuantity:
			event.Quantity = txn.Details.Decimal("quantity_subtracted")
			history.Totals.Subtracted = history.Totals.Subtracted.Add(event.Quantity)
		case models.OperationAddDefectiveGoods:
			event.Quantity = txn.Details.Decimal("defective_added")
			history.Totals.DefectiveAdded = history.Totals.DefectiveAdded.Add(event.Quantity)
		case models.OperationSubtractDefectiveGoods:
			event.Quantity = txn.Details.Decimal("defective_subtracted")
			history.Totals.DefectiveSubtracted = history.Totals.DefectiveSubtracted.Add(event.Quantity)
		case models.OperationPushToProduction:
			event.Quantity = txn.Details.DecimalMap("deductions")[input.ItemId]
			history.Totals.ConsumedByProduction = history.Totals.ConsumedByProduction.Add(event.Quantity)
		case models.OperationUndoProduction:
			event.Quantity = txn.Details.DecimalMap("deductions")[input.ItemId]
			history.Totals.ConsumedByProduction = history.Totals.ConsumedByProduction.Sub(event.Quantity)
		}
		history.Events = append(history.Events, &event)
	}

	if input.Order == "desc" {
		for i, j := 0, len(history.Events)-1; i < j; i, j = i+1, j-1 {
			history.Events[i], history.Events[j] = history.Events[j], history.Events[i]
		}
	}
	return &history, nil
}
