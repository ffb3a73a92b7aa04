package reports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/svfabworks/factory_backend/middlewares"
	"github.com/svfabworks/factory_backend/models"
	"github.com/svfabworks/factory_backend/utils"
)

// ConsumptionRow is one ledger-derived consumption event. Pushes contribute
// one row per deducted component; defective write-offs contribute one row.
type ConsumptionRow struct {
	ItemId           string          `json:"item_id"`
	QuantityConsumed decimal.Decimal `json:"quantity_consumed"`
	Timestamp        string          `json:"timestamp"`
}

// ExtractConsumption flattens a transaction window into consumption rows.
func ExtractConsumption(txns []*models.Transaction) []ConsumptionRow {
	var rows []ConsumptionRow
	for _, txn := range txns {
		switch txn.OperationType {
		case models.OperationPushToProduction:
			for itemId, qty := range txn.Details.DecimalMap("deductions") {
				rows = append(rows, ConsumptionRow{
					ItemId:           itemId,
					QuantityConsumed: qty,
					Timestamp:        txn.Timestamp,
				})
			}
		case models.OperationAddDefectiveGoods:
			rows = append(rows, ConsumptionRow{
				ItemId:           txn.Details.String("item_id"),
				QuantityConsumed: txn.Details.Decimal("defective_added"),
				Timestamp:        txn.Timestamp,
			})
		}
	}
	return rows
}

// InwardRow is one receipt extracted from an AddStockQuantity transaction.
type InwardRow struct {
	ItemId        string          `json:"item_id"`
	QuantityAdded decimal.Decimal `json:"quantity_added"`
	AddedCost     decimal.Decimal `json:"added_cost"`
	SupplierName  string          `json:"supplier_name"`
	NewAvailable  decimal.Decimal `json:"new_available"`
	Timestamp     string          `json:"timestamp"`
}

// ExtractInward flattens a transaction window into receipt rows.
func ExtractInward(txns []*models.Transaction) []InwardRow {
	var rows []InwardRow
	for _, txn := range txns {
		if txn.OperationType != models.OperationAddStockQuantity {
			continue
		}
		rows = append(rows, InwardRow{
			ItemId:        txn.Details.String("item_id"),
			QuantityAdded: txn.Details.Decimal("quantity_added"),
			AddedCost:     txn.Details.Decimal("added_cost"),
			SupplierName:  txn.Details.String("supplier_name"),
			NewAvailable:  txn.Details.Decimal("new_available"),
			Timestamp:     txn.Timestamp,
		})
	}
	return rows
}

// catalogue bundles the stock and group indexes every report needs for group
// nesting and current-rate valuation.
type catalogue struct {
	stocks map[string]*models.StockItem
	groups map[string]*models.Group
}

func loadCatalogue(ctx context.Context) (*catalogue, error) {
	stocks, err := models.LoadStockIndex(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := models.LoadGroupIndex(ctx)
	if err != nil {
		return nil, err
	}
	return &catalogue{stocks: stocks, groups: groups}, nil
}

// catalogueFor resolves just the touched items. Requests carry dataloaders,
// so the stock lookups batch into one query and each group in the chains is
// fetched once; callers without loaders (CLI tools, tests) fall back to full
// index scans.
func catalogueFor(ctx context.Context, itemIds []string) (*catalogue, error) {
	loaders := middlewares.For(ctx)
	if loaders == nil {
		return loadCatalogue(ctx)
	}

	items, errs := loaders.StockItemLoader.LoadMany(ctx, utils.UniqueSlice(itemIds))()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	stocks := make(map[string]*models.StockItem, len(items))
	for _, item := range items {
		if item != nil {
			stocks[item.ItemId] = item
		}
	}

	// Walk each item's group chain through the loader. The depth cap keeps
	// a parent cycle in stored data from hanging the walk.
	groups := map[string]*models.Group{}
	for _, item := range stocks {
		if item.GroupId == nil {
			continue
		}
		id := *item.GroupId
		for depth := 0; depth < 32; depth++ {
			if id == "" || groups[id] != nil {
				break
			}
			g, err := loaders.GroupLoader.Load(ctx, id)()
			if err != nil {
				return nil, err
			}
			if g == nil {
				break
			}
			groups[id] = g
			if g.ParentId == nil {
				break
			}
			id = *g.ParentId
		}
	}
	return &catalogue{stocks: stocks, groups: groups}, nil
}

// tiers resolves an item to its (group, subgroup) pair for nesting. Items
// missing from the catalogue land under Unknown/Unknown; an item whose
// group id resolves to no stored group keeps its own group string.
func (c *catalogue) tiers(itemId string) (string, string) {
	item, ok := c.stocks[itemId]
	if !ok || item.GroupId == nil {
		return models.UnknownGroup, models.UnknownGroup
	}
	chain := models.ResolveGroupChain(c.groups, *item.GroupId)
	if len(chain) == 0 {
		return *item.GroupId, *item.GroupId
	}
	return models.GroupTiers(chain)
}

func (c *catalogue) rate(itemId string) decimal.Decimal {
	if item, ok := c.stocks[itemId]; ok {
		return item.CostPerUnit
	}
	return decimal.Zero
}

// ConsumptionSummaryItem aggregates one item's movement over a window.
type ConsumptionSummaryItem struct {
	ItemId                string          `json:"item_id"`
	TotalQuantityConsumed decimal.Decimal `json:"total_quantity_consumed"`
	TotalQuantityAdded    decimal.Decimal `json:"total_quantity_added"`
	TotalAddedCost        decimal.Decimal `json:"total_added_cost"`
	Suppliers             []string        `json:"suppliers"`
}

// ConsumptionSummary is the daily report shape: group then subgroup nesting
// plus window totals valued at current rates.
type ConsumptionSummary struct {
	Date                     string                                         `json:"date"`
	Groups                   map[string]map[string][]*ConsumptionSummaryItem `json:"groups"`
	TotalConsumptionQuantity decimal.Decimal                                `json:"total_consumption_quantity"`
	TotalConsumptionAmount   decimal.Decimal                                `json:"total_consumption_amount"`
	TotalInwardQuantity      decimal.Decimal                                `json:"total_inward_quantity"`
	TotalInwardAmount        decimal.Decimal                                `json:"total_inward_amount"`
}

// GetDailyConsumptionSummary reports everything consumed and received on one
// date, nested group then subgroup.
func GetDailyConsumptionSummary(ctx context.Context, date string) (*ConsumptionSummary, error) {
	if date == "" {
		date = utils.TodayIST()
	} else if _, err := utils.ParseDate(date); err != nil {
		return nil, err
	}

	key := reportCacheKey("daily-consumption", date)
	var cached ConsumptionSummary
	if reportCacheGet(key, &cached) {
		return &cached, nil
	}

	txns, err := models.TransactionsForDate(ctx, date)
	if err != nil {
		return nil, err
	}
	consumed := ExtractConsumption(txns)
	inward := ExtractInward(txns)

	touched := make([]string, 0, len(consumed)+len(inward))
	for _, c := range consumed {
		touched = append(touched, c.ItemId)
	}
	for _, in := range inward {
		touched = append(touched, in.ItemId)
	}
	cat, err := catalogueFor(ctx, touched)
	if err != nil {
		return nil, err
	}

	perItem := map[string]*ConsumptionSummaryItem{}
	itemFor := func(itemId string) *ConsumptionSummaryItem {
		row, ok := perItem[itemId]
		if !ok {
			row = &ConsumptionSummaryItem{ItemId: itemId}
			perItem[itemId] = row
		}
		return row
	}

	summary := ConsumptionSummary{
		Date:   date,
		Groups: map[string]map[string][]*ConsumptionSummaryItem{},
	}
	for _, c := range consumed {
		row := itemFor(c.ItemId)
		row.TotalQuantityConsumed = row.TotalQuantityConsumed.Add(c.QuantityConsumed)
		summary.TotalConsumptionQuantity = summary.TotalConsumptionQuantity.Add(c.QuantityConsumed)
		summary.TotalConsumptionAmount = summary.TotalConsumptionAmount.Add(c.QuantityConsumed.Mul(cat.rate(c.ItemId)))
	}
	for _, in := range inward {
		row := itemFor(in.ItemId)
		row.TotalQuantityAdded = row.TotalQuantityAdded.Add(in.QuantityAdded)
		row.TotalAddedCost = row.TotalAddedCost.Add(in.AddedCost)
		if in.SupplierName != "" {
			row.Suppliers = append(row.Suppliers, in.SupplierName)
		}
		summary.TotalInwardQuantity = summary.TotalInwardQuantity.Add(in.QuantityAdded)
		summary.TotalInwardAmount = summary.TotalInwardAmount.Add(in.AddedCost)
	}

	for itemId, row := range perItem {
		row.Suppliers = utils.UniqueSlice(row.Suppliers)
		group, subgroup := cat.tiers(itemId)
		if summary.Groups[group] == nil {
			summary.Groups[group] = map[string][]*ConsumptionSummaryItem{}
		}
		summary.Groups[group][subgroup] = append(summary.Groups[group][subgroup], row)
	}
	summary.TotalConsumptionAmount = utils.RoundMoney(summary.TotalConsumptionAmount)
	summary.TotalInwardAmount = utils.RoundMoney(summary.TotalInwardAmount)

	reportCacheSet(key, &summary, dailyReportTTL)
	return &summary, nil
}

// DatedQuantityRow is the per-item entry of the windowed consumption views.
type DatedQuantityRow struct {
	ItemId   string          `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// WindowedConsumption nests date then group then subgroup. Every date in the
// window is present as a key even when nothing moved.
type WindowedConsumption struct {
	StartDate                string                                          `json:"start_date"`
	EndDate                  string                                          `json:"end_date"`
	Dates                    map[string]map[string]map[string][]*DatedQuantityRow `json:"dates"`
	TotalConsumptionQuantity decimal.Decimal                                 `json:"total_consumption_quantity"`
	TotalConsumptionAmount   decimal.Decimal                                 `json:"total_consumption_amount"`
}

func consumptionOverWindow(ctx context.Context, start, end string) (*WindowedConsumption, error) {
	dates, err := utils.DateRange(start, end)
	if err != nil {
		return nil, err
	}
	txns, err := models.TransactionsBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	consumed := ExtractConsumption(txns)
	touched := make([]string, 0, len(consumed))
	for _, c := range consumed {
		touched = append(touched, c.ItemId)
	}
	cat, err := catalogueFor(ctx, touched)
	if err != nil {
		return nil, err
	}

	byDate := map[string][]*models.Transaction{}
	for _, txn := range txns {
		byDate[txn.Date] = append(byDate[txn.Date], txn)
	}

	report := WindowedConsumption{
		StartDate: start,
		EndDate:   end,
		Dates:     map[string]map[string]map[string][]*DatedQuantityRow{},
	}
	for _, date := range dates {
		report.Dates[date] = map[string]map[string][]*DatedQuantityRow{}

		perItem := map[string]decimal.Decimal{}
		for _, c := range ExtractConsumption(byDate[date]) {
			perItem[c.ItemId] = perItem[c.ItemId].Add(c.QuantityConsumed)
		}
		for _, itemId := range utils.SortedKeys(perItem) {
			qty := perItem[itemId]
			group, subgroup := cat.tiers(itemId)
			if report.Dates[date][group] == nil {
				report.Dates[date][group] = map[string][]*DatedQuantityRow{}
			}
			report.Dates[date][group][subgroup] = append(report.Dates[date][group][subgroup],
				&DatedQuantityRow{ItemId: itemId, Quantity: qty})
			report.TotalConsumptionQuantity = report.TotalConsumptionQuantity.Add(qty)
			report.TotalConsumptionAmount = report.TotalConsumptionAmount.Add(qty.Mul(cat.rate(itemId)))
		}
	}
	report.TotalConsumptionAmount = utils.RoundMoney(report.TotalConsumptionAmount)
	return &report, nil
}

// GetWeeklyConsumptionSummary covers the last seven days ending today.
func GetWeeklyConsumptionSummary(ctx context.Context) (*WindowedConsumption, error) {
	start, end := utils.LastNDays(7)
	key := reportCacheKey("weekly-consumption", start, end)
	var cached WindowedConsumption
	if reportCacheGet(key, &cached) {
		return &cached, nil
	}
	report, err := consumptionOverWindow(ctx, start, end)
	if err != nil {
		return nil, err
	}
	reportCacheSet(key, report, dailyReportTTL)
	return report, nil
}

// GetMonthlyConsumptionSummary covers one calendar month (YYYY-MM).
func GetMonthlyConsumptionSummary(ctx context.Context, month string) (*WindowedConsumption, error) {
	start, end, err := utils.MonthBounds(month)
	if err != nil {
		return nil, err
	}
	key := reportCacheKey("monthly-consumption", month)
	var cached WindowedConsumption
	if reportCacheGet(key, &cached) {
		return &cached, nil
	}
	report, err := consumptionOverWindow(ctx, start, end)
	if err != nil {
		return nil, err
	}
	reportCacheSet(key, report, monthlyReportTTL)
	return report, nil
}
