package models

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/svfabworks/factory_backend/storage"
	"github.com/svfabworks/factory_backend/utils"
)

// CastingProduct tracks the casting shop's parallel workflow: a named recipe
// that gets cast in batches before moving into regular production.
type CastingProduct struct {
	CastingId    string          `gorm:"primaryKey;size:40" json:"casting_id"`
	Name         string          `gorm:"index;size:100;not null" json:"name"`
	StockNeeded  DecimalMap      `gorm:"type:json" json:"stock_needed"`
	QuantityCast decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity_cast"`
	CreatedAt    string          `gorm:"size:40" json:"created_at"`
	UpdatedAt    string          `gorm:"size:40" json:"updated_at"`
}

type NewCastingProduct struct {
	Name        string     `json:"name" binding:"required"`
	StockNeeded DecimalMap `json:"stock_needed" binding:"required"`
}

func CreateCastingProduct(ctx context.Context, input *NewCastingProduct) (*CastingProduct, error) {
	if len(input.StockNeeded) == 0 {
		return nil, errors.New("stock_needed is required")
	}
	for itemId, qty := range input.StockNeeded {
		if !qty.IsPositive() {
			return nil, errors.New("stock_needed quantity for " + itemId + " must be greater than zero")
		}
	}
	now := utils.NowISTString()
	casting := CastingProduct{
		CastingId:   uuid.NewString(),
		Name:        input.Name,
		StockNeeded: input.StockNeeded.Clone(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := storage.Create(ctx, &casting); err != nil {
		return nil, err
	}
	return &casting, nil
}

type MoveToProductionInput struct {
	CastingId string          `json:"casting_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
}

// MoveCastingToProduction consumes stock for a casting batch the same way a
// push does, and records it in the ledger in the push shape so the
// consumption reports pick it up without a special case.
func MoveCastingToProduction(ctx context.Context, input *MoveToProductionInput, username string) (*CastingProduct, error) {
	if !input.Quantity.IsPositive() {
		return nil, errors.New("quantity must be greater than zero")
	}
	casting, err := storage.Get[CastingProduct](ctx, input.CastingId)
	if err != nil {
		return nil, errors.New("casting product not found")
	}

	required := DecimalMap{}
	for itemId, perUnit := range casting.StockNeeded {
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

	for itemId, need := range required {
		item := items[itemId]
		if _, _, err := applySubtractQuantity(item, need, true); err != nil {
			return nil, err
		}
		if err := storage.Put(ctx, item); err != nil {
			return nil, err
		}
	}

	casting.QuantityCast = casting.QuantityCast.Add(input.Quantity)
	casting.UpdatedAt = utils.NowISTString()
	if err := storage.Put(ctx, casting); err != nil {
		return nil, err
	}

	if _, err := LogTransaction(ctx, OperationPushToProduction, username, Details{
		"casting_id":   casting.CastingId,
		"product_name": casting.Name,
		"quantity":     input.Quantity,
		"deductions":   map[string]decimal.Decimal(required),
	}); err != nil {
		return nil, err
	}
	RequestProductionRecalc(ctx)
	return casting, nil
}

func DeleteCastingProduct(ctx context.Context, castingId string) error {
	if _, err := storage.Get[CastingProduct](ctx, castingId); err != nil {
		return errors.New("casting product not found")
	}
	return storage.Delete[CastingProduct](ctx, castingId)
}

func GetAllCastingProducts(ctx context.Context) ([]*CastingProduct, error) {
	return storage.Scan[CastingProduct](ctx, "")
}
