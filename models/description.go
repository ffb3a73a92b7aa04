package models

import (
	"context"
	"errors"

	"github.com/svfabworks/factory_backend/storage"
	"github.com/svfabworks/factory_backend/utils"
)

// Description is a free-text note attached to a stock item.
type Description struct {
	ItemId    string `gorm:"primaryKey;size:100" json:"item_id"`
	Text      string `gorm:"type:text" json:"text"`
	Username  string `gorm:"size:100" json:"username"`
	UpdatedAt string `gorm:"size:40" json:"updated_at"`
}

// CreateDescription writes or replaces the note for an item.
func CreateDescription(ctx context.Context, itemId, text, username string) (*Description, error) {
	if itemId == "" {
		return nil, errors.New("item_id is required")
	}
	if _, err := fetchStockItem(ctx, itemId); err != nil {
		return nil, err
	}
	desc := Description{
		ItemId:    itemId,
		Text:      text,
		Username:  username,
		UpdatedAt: utils.NowISTString(),
	}
	if err := storage.Put(ctx, &desc); err != nil {
		return nil, err
	}
	return &desc, nil
}

func GetDescription(ctx context.Context, itemId string) (*Description, error) {
	desc, err := storage.Get[Description](ctx, itemId)
	if err != nil {
		return nil, errors.New("description not found")
	}
	return desc, nil
}

func GetAllDescriptions(ctx context.Context) ([]*Description, error) {
	return storage.Scan[Description](ctx, "")
}
