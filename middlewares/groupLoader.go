package middlewares

import (
	"context"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/svfabworks/factory_backend/models"
	"github.com/svfabworks/factory_backend/storage"
)

type groupReader struct{}

func (r *groupReader) getGroups(ctx context.Context, ids []string) []*dataloader.Result[*models.Group] {
	results, err := storage.BatchGet[models.Group](ctx, "group_id", ids)
	if err != nil {
		return handleError[*models.Group](len(ids), err)
	}

	byId := make(map[string]*models.Group, len(results))
	for _, result := range results {
		byId[result.GroupId] = result
	}
	return generateLoaderResults(byId, ids)
}

func GetGroup(ctx context.Context, id string) (*models.Group, error) {
	loaders := For(ctx)
	return loaders.GroupLoader.Load(ctx, id)()
}

func GetGroups(ctx context.Context, ids []string) ([]*models.Group, []error) {
	loaders := For(ctx)
	return loaders.GroupLoader.LoadMany(ctx, ids)()
}
