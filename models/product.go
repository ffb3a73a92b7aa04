package models

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/svfabworks/factory_backend/config"
	"github.com/svfabworks/factory_backend/storage"
	"github.com/svfabworks/factory_backend/utils"
)

// Product is an assembled good defined by its bill of materials
// (stock_needed). All cost fields and max_produce are derived from the live
// stock catalogue on every write and after every stock mutation.
type Product struct {
	ProductId               string          `gorm:"primaryKey;size:40" json:"product_id"`
	ProductName             string          `gorm:"index;size:100;not null" json:"product_name"`
	StockNeeded             DecimalMap      `gorm:"type:json" json:"stock_needed"`
	LabourCost              decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"labour_cost"`
	TransportCost           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"transport_cost"`
	OtherCost               decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"other_cost"`
	WastagePercent          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"wastage_percent"`
	ProductionCostBreakdown DecimalMap      `gorm:"type:json" json:"production_cost_breakdown"`
	ProductionCostTotal     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"production_cost_total"`
	WastageAmount           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"wastage_amount"`
	TotalCost               decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_cost"`
	MaxProduce              int64           `gorm:"default:0" json:"max_produce"`
	Inventory               decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"inventory"`
	CreatedAt               string          `gorm:"size:40" json:"created_at"`
	UpdatedAt               string          `gorm:"size:40" json:"updated_at"`
}

// Derive recomputes every derived field from the stock index. A referenced
// item missing from the index forces max_produce to 0 and empties the
// breakdown; the product row itself is still valid.
func (p *Product) Derive(stocks map[string]*StockItem) {
	p.ProductionCostBreakdown = DecimalMap{}
	p.ProductionCostTotal = decimal.Zero
	p.WastageAmount = decimal.Zero
	p.TotalCost = decimal.Zero
	p.MaxProduce = 0

	if len(p.StockNeeded) == 0 {
		return
	}

	baseCost := decimal.Zero
	maxProduce := int64(-1)
	for itemId, needed := range p.StockNeeded {
		item, ok := stocks[itemId]
		if !ok || !needed.IsPositive() {
			p.ProductionCostBreakdown = DecimalMap{}
			p.ProductionCostTotal = decimal.Zero
			p.WastageAmount = decimal.Zero
			p.TotalCost = utils.RoundMoney(p.TransportCost.Add(p.LabourCost).Add(p.OtherCost))
			p.MaxProduce = 0
			return
		}
		cost := utils.RoundMoney(needed.Mul(item.CostPerUnit))
		p.ProductionCostBreakdown[itemId] = cost
		baseCost = baseCost.Add(cost)

		producible := item.Quantity.Div(needed).Floor().IntPart()
		if maxProduce < 0 || producible < maxProduce {
			maxProduce = producible
		}
	}
	if maxProduce < 0 {
		maxProduce = 0
	}

	p.ProductionCostTotal = utils.RoundMoney(baseCost)
	p.WastageAmount = utils.RoundMoney(baseCost.Mul(p.WastagePercent).Div(hundred))
	p.TotalCost = utils.RoundMoney(baseCost.
		Add(p.WastageAmount).
		Add(p.TransportCost).
		Add(p.LabourCost).
		Add(p.OtherCost))
	p.MaxProduce = maxProduce
}

// LoadStockIndex scans STOCK into an id-keyed map for derivations.
func LoadStockIndex(ctx context.Context) (map[string]*StockItem, error) {
	items, err := storage.SegmentScan[StockItem](ctx, "")
	if err != nil {
		return nil, err
	}
	index := make(map[string]*StockItem, len(items))
	for _, item := range items {
		index[item.ItemId] = item
	}
	return index, nil
}

type NewProduct struct {
	ProductName    string          `json:"product_name" binding:"required"`
	StockNeeded    DecimalMap      `json:"stock_needed"`
	LabourCost     decimal.Decimal `json:"labour_cost"`
	TransportCost  decimal.Decimal `json:"transport_cost"`
	OtherCost      decimal.Decimal `json:"other_cost"`
	WastagePercent decimal.Decimal `json:"wastage_percent"`
}

func CreateProduct(ctx context.Context, input *NewProduct, username string) (*Product, error) {
	if input.ProductName == "" {
		return nil, errors.New("product_name is required")
	}
	for itemId, qty := range input.StockNeeded {
		if !qty.IsPositive() {
			return nil, errors.New("stock_needed quantity for " + itemId + " must be greater than zero")
		}
	}

	stocks, err := LoadStockIndex(ctx)
	if err != nil {
		return nil, err
	}
	now := utils.NowISTString()
	product := Product{
		ProductId:      uuid.NewString(),
		ProductName:    input.ProductName,
		StockNeeded:    input.StockNeeded.Clone(),
		LabourCost:     input.LabourCost,
		TransportCost:  input.TransportCost,
		OtherCost:      input.OtherCost,
		WastagePercent: input.WastagePercent,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	product.Derive(stocks)

	if err := storage.Create(ctx, &product); err != nil {
		return nil, err
	}
	if _, err := LogTransaction(ctx, OperationCreateProduct, username, Details{
		"product_id":   product.ProductId,
		"product_name": product.ProductName,
		"total_cost":   product.TotalCost,
		"max_produce":  product.MaxProduce,
	}); err != nil {
		return nil, err
	}
	return &product, nil
}

type UpdateProductInput struct {
	ProductId      string           `json:"product_id" binding:"required"`
	ProductName    *string          `json:"product_name"`
	StockNeeded    DecimalMap       `json:"stock_needed"`
	LabourCost     *decimal.Decimal `json:"labour_cost"`
	TransportCost  *decimal.Decimal `json:"transport_cost"`
	OtherCost      *decimal.Decimal `json:"other_cost"`
	WastagePercent *decimal.Decimal `json:"wastage_percent"`
}

// UpdateProduct replaces the provided fields and re-derives everything.
func UpdateProduct(ctx context.Context, input *UpdateProductInput, username string) (*Product, error) {
	product, err := storage.Get[Product](ctx, input.ProductId)
	if err != nil {
		return nil, errors.New("product not found")
	}
	if input.ProductName != nil && *input.ProductName != "" {
		product.ProductName = *input.ProductName
	}
	if input.StockNeeded != nil {
		for itemId, qty := range input.StockNeeded {
			if !qty.IsPositive() {
				return nil, errors.New("stock_needed quantity for " + itemId + " must be greater than zero")
			}
		}
		product.StockNeeded = input.StockNeeded.Clone()
	}
	if input.LabourCost != nil {
		product.LabourCost = *input.LabourCost
	}
	if input.TransportCost != nil {
		product.TransportCost = *input.TransportCost
	}
	if input.OtherCost != nil {
		product.OtherCost = *input.OtherCost
	}
	if input.WastagePercent != nil {
		product.WastagePercent = *input.WastagePercent
	}

	stocks, err := LoadStockIndex(ctx)
	if err != nil {
		return nil, err
	}
	product.Derive(stocks)
	product.UpdatedAt = utils.NowISTString()
	if err := storage.Put(ctx, product); err != nil {
		return nil, err
	}
	if _, err := LogTransaction(ctx, OperationUpdateProduct, username, Details{
		"product_id":   product.ProductId,
		"product_name": product.ProductName,
		"total_cost":   product.TotalCost,
		"max_produce":  product.MaxProduce,
	}); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProductDetails adjusts only the cost add-ons and re-derives.
type UpdateProductDetailsInput struct {
	ProductId      string           `json:"product_id" binding:"required"`
	LabourCost     *decimal.Decimal `json:"labour_cost"`
	TransportCost  *decimal.Decimal `json:"transport_cost"`
	OtherCost      *decimal.Decimal `json:"other_cost"`
	WastagePercent *decimal.Decimal `json:"wastage_percent"`
}

func UpdateProductDetails(ctx context.Context, input *UpdateProductDetailsInput, username string) (*Product, error) {
	return UpdateProduct(ctx, &UpdateProductInput{
		ProductId:      input.ProductId,
		LabourCost:     input.LabourCost,
		TransportCost:  input.TransportCost,
		OtherCost:      input.OtherCost,
		WastagePercent: input.WastagePercent,
	}, username)
}

func DeleteProduct(ctx context.Context, productId string, username string) error {
	product, err := storage.Get[Product](ctx, productId)
	if err != nil {
		return errors.New("product not found")
	}
	if err := storage.Delete[Product](ctx, productId); err != nil {
		return err
	}
	_, err = LogTransaction(ctx, OperationDeleteProduct, username, Details{
		"product_id":   product.ProductId,
		"product_name": product.ProductName,
	})
	return err
}

func GetAllProducts(ctx context.Context) ([]*Product, error) {
	return storage.Scan[Product](ctx, "")
}

type AlterProductInput struct {
	ProductId   string     `json:"product_id" binding:"required"`
	StockDelete []string   `json:"stock_delete"`
	StockAdd    DecimalMap `json:"stock_add"`
}

// ErrNoProductChanges signals an AlterProduct call that left the component
// map exactly as it was.
var ErrNoProductChanges = errors.New("No changes to apply")

// AlterProductComponents edits a product's bill of materials: deletes first,
// then inserts, then delegates to UpdateProduct so every derived field is
// recomputed in one place. Added ids get a case-insensitive fallback against
// the stock catalogue.
func AlterProductComponents(ctx context.Context, input *AlterProductInput, username string) (*Product, error) {
	product, err := storage.Get[Product](ctx, input.ProductId)
	if err != nil {
		return nil, errors.New("product not found")
	}

	stocks, err := LoadStockIndex(ctx)
	if err != nil {
		return nil, err
	}
	lowered := make(map[string]string, len(stocks))
	for id := range stocks {
		lowered[strings.ToLower(id)] = id
	}

	next := product.StockNeeded.Clone()
	for _, itemId := range input.StockDelete {
		delete(next, itemId)
		if canonical, ok := lowered[strings.ToLower(itemId)]; ok {
			delete(next, canonical)
		}
	}
	for itemId, qty := range input.StockAdd {
		if !qty.IsPositive() {
			return nil, errors.New("added quantity for " + itemId + " must be greater than zero")
		}
		canonical, ok := lowered[strings.ToLower(itemId)]
		if !ok {
			return nil, errors.New("stock item " + itemId + " not found")
		}
		next[canonical] = qty
	}
	for itemId, qty := range next {
		if !qty.IsPositive() {
			delete(next, itemId)
		}
	}

	if next.Equal(product.StockNeeded) {
		return nil, ErrNoProductChanges
	}

	updated, err := UpdateProduct(ctx, &UpdateProductInput{
		ProductId:   input.ProductId,
		StockNeeded: next,
	}, username)
	if err != nil {
		return nil, err
	}
	if _, err := LogTransaction(ctx, OperationAlterProduct, username, Details{
		"product_id":   updated.ProductId,
		"stock_delete": input.StockDelete,
		"stock_add":    input.StockAdd,
	}); err != nil {
		return nil, err
	}
	return updated, nil
}

// RecalculateAllProduction re-derives max_produce (and the cost fields that
// depend on current rates) for every product. O(products x components); runs
// after every stock write.
func RecalculateAllProduction(ctx context.Context) error {
	stocks, err := LoadStockIndex(ctx)
	if err != nil {
		return err
	}
	products, err := storage.Scan[Product](ctx, "")
	if err != nil {
		return err
	}
	for _, product := range products {
		before := product.MaxProduce
		beforeCost := product.TotalCost
		product.Derive(stocks)
		if product.MaxProduce == before && product.TotalCost.Equal(beforeCost) {
			continue
		}
		product.UpdatedAt = utils.NowISTString()
		if err := storage.Put(ctx, product); err != nil {
			return err
		}
	}
	return nil
}

// recalcRequests carries deferred recompute signals to the workflow worker.
// Buffered so a burst of mutations collapses into back-to-back recomputes
// instead of blocking the request path.
var recalcRequests = make(chan struct{}, 16)

// RecalcRequests exposes the signal channel to the background worker.
func RecalcRequests() <-chan struct{} {
	return recalcRequests
}

// RequestProductionRecalc runs the recompute inline, or signals the worker
// when async recalc is enabled. Either way, report caches are stale the
// moment stock changes, so they are dropped here.
func RequestProductionRecalc(ctx context.Context) {
	if err := config.RemoveRedisPrefix("report:"); err != nil {
		config.LogError(config.GetLogger(), "models", "RequestProductionRecalc", "invalidate report cache", nil, err)
	}
	if config.AsyncProductionRecalc() {
		select {
		case recalcRequests <- struct{}{}:
		default:
		}
		return
	}
	if err := RecalculateAllProduction(ctx); err != nil {
		config.LogError(config.GetLogger(), "models", "RequestProductionRecalc", "recalculate", nil, err)
	}
}
