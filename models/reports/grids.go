package reports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/svfabworks/factory_backend/models"
	"github.com/svfabworks/factory_backend/utils"
)

// GridRow is one item's line in a monthly movement grid. Days maps the
// day-of-month key ("1".."31") to the quantity moved that day.
type GridRow struct {
	ItemId         string                     `json:"item_id"`
	ItemName       string                     `json:"item_name"`
	OpeningBalance decimal.Decimal            `json:"opening_balance"`
	Days           map[string]decimal.Decimal `json:"days"`
	Total          decimal.Decimal            `json:"total"`
}

// MonthlyGrid groups rows by top-level group name; items without a resolved
// group collect under "Ungrouped".
type MonthlyGrid struct {
	Month        string                `json:"month"`
	Groups       map[string][]*GridRow `json:"groups"`
	MonthlyTotal decimal.Decimal       `json:"monthly_total"`
}

// monthMovement totals the ledger from the first of the month onward:
// receipts and consumption per item since month start, plus per-day buckets
// for the view's direction restricted to days inside the month.
type monthMovement struct {
	inwardSince  map[string]decimal.Decimal
	outwardSince map[string]decimal.Decimal
	days         map[string]map[string]decimal.Decimal
}

func accumulateMovement(txns []*models.Transaction, start, end string, outward bool) *monthMovement {
	m := &monthMovement{
		inwardSince:  map[string]decimal.Decimal{},
		outwardSince: map[string]decimal.Decimal{},
		days:         map[string]map[string]decimal.Decimal{},
	}
	recordDay := func(itemId, date string, qty decimal.Decimal) {
		if date < start || date > end {
			return
		}
		day, err := utils.DayOfMonthKey(date)
		if err != nil {
			return
		}
		if m.days[itemId] == nil {
			m.days[itemId] = map[string]decimal.Decimal{}
		}
		m.days[itemId][day] = m.days[itemId][day].Add(qty)
	}

	for _, txn := range txns {
		for _, in := range ExtractInward([]*models.Transaction{txn}) {
			m.inwardSince[in.ItemId] = m.inwardSince[in.ItemId].Add(in.QuantityAdded)
			if !outward {
				recordDay(in.ItemId, txn.Date, in.QuantityAdded)
			}
		}
		for _, c := range ExtractConsumption([]*models.Transaction{txn}) {
			m.outwardSince[c.ItemId] = m.outwardSince[c.ItemId].Add(c.QuantityConsumed)
			if outward {
				recordDay(c.ItemId, txn.Date, c.QuantityConsumed)
			}
		}
	}
	return m
}

// openingBalance walks back from the current quantity to the first of the
// month: receipts since then come off, and the outward view adds consumption
// back.
func (m *monthMovement) openingBalance(itemId string, current decimal.Decimal, outward bool) decimal.Decimal {
	opening := current.Sub(m.inwardSince[itemId])
	if outward {
		opening = opening.Add(m.outwardSince[itemId])
	}
	return opening
}

// monthlyGrid derives opening balances by walking the ledger back from
// current quantities: everything from the first of the month onward is known,
// so opening = current minus the net movement since then. The inward view
// only subtracts receipts; the outward view also re-adds consumption.
func monthlyGrid(ctx context.Context, month string, outward bool) (*MonthlyGrid, error) {
	start, end, err := utils.MonthBounds(month)
	if err != nil {
		return nil, err
	}
	txns, err := models.TransactionsSince(ctx, start)
	if err != nil {
		return nil, err
	}
	cat, err := loadCatalogue(ctx)
	if err != nil {
		return nil, err
	}

	movement := accumulateMovement(txns, start, end, outward)

	grid := MonthlyGrid{Month: month, Groups: map[string][]*GridRow{}}
	for _, itemId := range utils.SortedKeys(cat.stocks) {
		item := cat.stocks[itemId]
		row := GridRow{
			ItemId:         itemId,
			ItemName:       item.Name,
			OpeningBalance: movement.openingBalance(itemId, item.Quantity, outward),
			Days:           map[string]decimal.Decimal{},
		}
		for day, qty := range movement.days[itemId] {
			row.Days[day] = qty
			row.Total = row.Total.Add(qty)
		}
		grid.MonthlyTotal = grid.MonthlyTotal.Add(row.Total)

		groupName := models.UngroupedName
		if item.GroupId != nil {
			if chain := models.ResolveGroupChain(cat.groups, *item.GroupId); len(chain) > 0 {
				groupName = chain[0]
			}
		}
		grid.Groups[groupName] = append(grid.Groups[groupName], &row)
	}
	return &grid, nil
}

func GetMonthlyInwardGrid(ctx context.Context, month string) (*MonthlyGrid, error) {
	key := reportCacheKey("monthly-inward-grid", month)
	var cached MonthlyGrid
	if reportCacheGet(key, &cached) {
		return &cached, nil
	}
	grid, err := monthlyGrid(ctx, month, false)
	if err != nil {
		return nil, err
	}
	reportCacheSet(key, grid, monthlyReportTTL)
	return grid, nil
}

func GetMonthlyOutwardGrid(ctx context.Context, month string) (*MonthlyGrid, error) {
	key := reportCacheKey("monthly-outward-grid", month)
	var cached MonthlyGrid
	if reportCacheGet(key, &cached) {
		return &cached, nil
	}
	grid, err := monthlyGrid(ctx, month, true)
	if err != nil {
		return nil, err
	}
	reportCacheSet(key, grid, monthlyReportTTL)
	return grid, nil
}
