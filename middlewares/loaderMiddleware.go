package middlewares

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"

	"github.com/svfabworks/factory_backend/models"
)

type ctxKey string

const (
	loadersKey = ctxKey("dataloaders")
)

// Loaders batch the per-request lookups the report handlers fire while
// resolving item rows to their group tiers.
type Loaders struct {
	StockItemLoader *dataloader.Loader[string, *models.StockItem]
	GroupLoader     *dataloader.Loader[string, *models.Group]
}

func NewLoaders() *Loaders {
	stockItemReader := &stockItemReader{}
	groupReader := &groupReader{}

	return &Loaders{
		StockItemLoader: dataloader.NewBatchedLoader(stockItemReader.getStockItems,
			dataloader.WithWait[string, *models.StockItem](time.Millisecond)),
		GroupLoader: dataloader.NewBatchedLoader(groupReader.getGroups,
			dataloader.WithWait[string, *models.Group](time.Millisecond)),
	}
}

func LoaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		loader := NewLoaders()
		ctx := context.WithValue(c.Request.Context(), loadersKey, loader)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func For(ctx context.Context) *Loaders {
	loaders, _ := ctx.Value(loadersKey).(*Loaders)
	return loaders
}

func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

// generateLoaderResults realigns a key-order-agnostic result set to the
// requested key order. Missing keys resolve to nil data, not errors.
func generateLoaderResults[T any](results map[string]*T, keys []string) []*dataloader.Result[*T] {
	loaderResults := make([]*dataloader.Result[*T], 0, len(keys))
	for _, key := range keys {
		loaderResults = append(loaderResults, &dataloader.Result[*T]{Data: results[key]})
	}
	return loaderResults
}
