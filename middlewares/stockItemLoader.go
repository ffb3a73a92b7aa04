package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/svfabworks/factory_backend/models"
	"github.com/svfabworks/factory_backend/storage"
)

type stockItemReader struct{}

func (r *stockItemReader) getStockItems(ctx context.Context, ids []string) []*dataloader.Result[*models.StockItem] {
	results, err := storage.BatchGet[models.StockItem](ctx, "item_id", ids)
	if err != nil {
		return handleError[*models.StockItem](len(ids), err)
	}

	byId := make(map[string]*models.StockItem, len(results))
	for _, result := range results {
		byId[result.ItemId] = result
	}
	return generateLoaderResults(byId, ids)
}

func GetStockItem(ctx context.Context, id string) (*models.StockItem, error) {
	loaders := For(ctx)
	return loaders.StockItemLoader.Load(ctx, id)()
}

func GetStockItems(ctx context.Context, ids []string) ([]*models.StockItem, []error) {
	loaders := For(ctx)
	return loaders.StockItemLoader.LoadMany(ctx, ids)()
}
