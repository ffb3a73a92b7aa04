package models

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/svfabworks/factory_backend/storage"
	"github.com/svfabworks/factory_backend/utils"
)

// GrnRecord is a goods-received note: one inbound delivery with its freight
// cost. GRNs are bookkeeping on top of AddStockQuantity, they do not mutate
// stock themselves.
type GrnRecord struct {
	GrnId         string          `gorm:"primaryKey;size:40" json:"grn_id"`
	ItemId        string          `gorm:"index;size:100" json:"item_id"`
	Quantity      decimal.Decimal `gorm:"type:decimal(20,4)" json:"quantity"`
	FreightCost   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"freight_cost"`
	SupplierName  string          `gorm:"size:100" json:"supplier_name"`
	VehicleNumber string          `gorm:"size:40" json:"vehicle_number"`
	Date          string          `gorm:"index;size:10" json:"date"`
	Username      string          `gorm:"size:100" json:"username"`
	CreatedAt     string          `gorm:"size:40" json:"created_at"`
	UpdatedAt     string          `gorm:"size:40" json:"updated_at"`
}

type GrnInput struct {
	ItemId        string          `json:"item_id" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	FreightCost   decimal.Decimal `json:"freight_cost"`
	SupplierName  string          `json:"supplier_name"`
	VehicleNumber string          `json:"vehicle_number"`
	Date          string          `json:"date"`
}

func CreateGRN(ctx context.Context, input *GrnInput, username string) (*GrnRecord, error) {
	if !input.Quantity.IsPositive() {
		return nil, errors.New("quantity must be greater than zero")
	}
	if _, err := fetchStockItem(ctx, input.ItemId); err != nil {
		return nil, err
	}
	date := input.Date
	if date == "" {
		date = utils.TodayIST()
	} else if _, err := utils.ParseDate(date); err != nil {
		return nil, err
	}
	now := utils.NowISTString()
	record := GrnRecord{
		GrnId:         uuid.NewString(),
		ItemId:        input.ItemId,
		Quantity:      input.Quantity,
		FreightCost:   input.FreightCost,
		SupplierName:  input.SupplierName,
		VehicleNumber: input.VehicleNumber,
		Date:          date,
		Username:      username,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := storage.Create(ctx, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func GetGRN(ctx context.Context, grnId string) (*GrnRecord, error) {
	record, err := storage.Get[GrnRecord](ctx, grnId)
	if err != nil {
		return nil, errors.New("grn record not found")
	}
	return record, nil
}

// ListGRN returns records for the date window, newest first. Empty bounds
// mean the whole table.
func ListGRN(ctx context.Context, start, end string) ([]*GrnRecord, error) {
	var records []*GrnRecord
	var err error
	if start == "" && end == "" {
		records, err = storage.Scan[GrnRecord](ctx, "")
	} else {
		if start == "" {
			start = end
		}
		if end == "" {
			end = start
		}
		records, err = storage.Query[GrnRecord](ctx, "date BETWEEN ? AND ?", start, end)
	}
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt > records[j].CreatedAt
	})
	return records, nil
}

type UpdateGrnInput struct {
	GrnId         string           `json:"grn_id" binding:"required"`
	Quantity      *decimal.Decimal `json:"quantity"`
	FreightCost   *decimal.Decimal `json:"freight_cost"`
	SupplierName  *string          `json:"supplier_name"`
	VehicleNumber *string          `json:"vehicle_number"`
}

func UpdateGRN(ctx context.Context, input *UpdateGrnInput) (*GrnRecord, error) {
	record, err := storage.Get[GrnRecord](ctx, input.GrnId)
	if err != nil {
		return nil, errors.New("grn record not found")
	}
	if input.Quantity != nil {
		if !input.Quantity.IsPositive() {
			return nil, errors.New("quantity must be greater than zero")
		}
		record.Quantity = *input.Quantity
	}
	if input.FreightCost != nil {
		record.FreightCost = *input.FreightCost
	}
	if input.SupplierName != nil {
		record.SupplierName = *input.SupplierName
	}
	if input.VehicleNumber != nil {
		record.VehicleNumber = *input.VehicleNumber
	}
	record.UpdatedAt = utils.NowISTString()
	if err := storage.Put(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func DeleteGRN(ctx context.Context, grnId string) error {
	if _, err := storage.Get[GrnRecord](ctx, grnId); err != nil {
		return errors.New("grn record not found")
	}
	return storage.Delete[GrnRecord](ctx, grnId)
}
