package reports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/svfabworks/factory_backend/models"
	"github.com/svfabworks/factory_backend/utils"
)

// StockFlowRow is one line of the stock-flow report. Summary lines reuse the
// shape with an empty item_id and a "TOTAL" item name.
type StockFlowRow struct {
	ItemId             string          `json:"item_id,omitempty"`
	ItemName           string          `json:"item_name"`
	OpeningQty         decimal.Decimal `json:"opening_qty"`
	OpeningStockAmount decimal.Decimal `json:"opening_stock_amount"`
	InwardQty          decimal.Decimal `json:"inward_qty"`
	InwardAmount       decimal.Decimal `json:"inward_amount"`
	ConsumptionQty     decimal.Decimal `json:"consumption_qty"`
	ConsumptionAmount  decimal.Decimal `json:"consumption_amount"`
	BalanceQty         decimal.Decimal `json:"balance_qty"`
	BalanceAmount      decimal.Decimal `json:"balance_amount"`
	GroupName          string          `json:"group_name,omitempty"`
	ParentGroupName    string          `json:"parent_group_name,omitempty"`
}

func (r *StockFlowRow) absorb(other *StockFlowRow) {
	r.OpeningQty = r.OpeningQty.Add(other.OpeningQty)
	r.OpeningStockAmount = r.OpeningStockAmount.Add(other.OpeningStockAmount)
	r.InwardQty = r.InwardQty.Add(other.InwardQty)
	r.InwardAmount = r.InwardAmount.Add(other.InwardAmount)
	r.ConsumptionQty = r.ConsumptionQty.Add(other.ConsumptionQty)
	r.ConsumptionAmount = r.ConsumptionAmount.Add(other.ConsumptionAmount)
	r.BalanceQty = r.BalanceQty.Add(other.BalanceQty)
	r.BalanceAmount = r.BalanceAmount.Add(other.BalanceAmount)
}

// DateRollup pairs a date's raw operations with its movement totals. The
// bulky per-item snapshot rows are stripped from the operation details.
type DateRollup struct {
	Date              string           `json:"date"`
	Operations        []models.Details `json:"operations"`
	InwardQty         decimal.Decimal  `json:"inward_qty"`
	InwardAmount      decimal.Decimal  `json:"inward_amount"`
	ConsumptionQty    decimal.Decimal  `json:"consumption_qty"`
	ConsumptionAmount decimal.Decimal  `json:"consumption_amount"`
	BalanceQty        decimal.Decimal  `json:"balance_qty"`
	BalanceAmount     decimal.Decimal  `json:"balance_amount"`
}

// StockFlowReport covers every catalogue item over a window, with subgroup,
// parent-group and grand-total summary rows appended in order.
type StockFlowReport struct {
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	Rows         []*StockFlowRow `json:"rows"`
	Transactions []*DateRollup   `json:"transactions"`
}

func stockFlowOverWindow(ctx context.Context, start, end string) (*StockFlowReport, error) {
	dates, err := utils.DateRange(start, end)
	if err != nil {
		return nil, err
	}
	txns, err := models.TransactionsBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	cat, err := loadCatalogue(ctx)
	if err != nil {
		return nil, err
	}
	opening, err := models.OpeningQuantities(ctx, start)
	if err != nil {
		return nil, err
	}

	inwardQty := map[string]decimal.Decimal{}
	inwardAmount := map[string]decimal.Decimal{}
	for _, in := range ExtractInward(txns) {
		inwardQty[in.ItemId] = inwardQty[in.ItemId].Add(in.QuantityAdded)
		inwardAmount[in.ItemId] = inwardAmount[in.ItemId].Add(in.AddedCost)
	}
	consumedQty := map[string]decimal.Decimal{}
	for _, c := range ExtractConsumption(txns) {
		consumedQty[c.ItemId] = consumedQty[c.ItemId].Add(c.QuantityConsumed)
	}

	// parent group -> subgroup -> item rows, keys sorted for stable output
	nested := map[string]map[string][]*StockFlowRow{}
	for _, itemId := range utils.SortedKeys(cat.stocks) {
		item := cat.stocks[itemId]
		rate := item.CostPerUnit
		row := &StockFlowRow{
			ItemId:         itemId,
			ItemName:       item.Name,
			OpeningQty:     opening[itemId],
			InwardQty:      inwardQty[itemId],
			InwardAmount:   utils.RoundMoney(inwardAmount[itemId]),
			ConsumptionQty: consumedQty[itemId],
		}
		row.OpeningStockAmount = utils.RoundMoney(row.OpeningQty.Mul(rate))
		row.ConsumptionAmount = utils.RoundMoney(row.ConsumptionQty.Mul(rate))
		row.BalanceQty = row.OpeningQty.Add(row.InwardQty).Sub(row.ConsumptionQty)
		row.BalanceAmount = utils.RoundMoney(row.BalanceQty.Mul(rate))

		parent, subgroup := cat.tiers(itemId)
		row.GroupName = subgroup
		row.ParentGroupName = parent
		if nested[parent] == nil {
			nested[parent] = map[string][]*StockFlowRow{}
		}
		nested[parent][subgroup] = append(nested[parent][subgroup], row)
	}

	report := StockFlowReport{StartDate: start, EndDate: end}
	grand := &StockFlowRow{ItemName: "TOTAL"}
	for _, parent := range utils.SortedKeys(nested) {
		parentTotal := &StockFlowRow{ItemName: "TOTAL: " + parent, ParentGroupName: parent}
		for _, subgroup := range utils.SortedKeys(nested[parent]) {
			subTotal := &StockFlowRow{
				ItemName:        "TOTAL: " + subgroup,
				GroupName:       subgroup,
				ParentGroupName: parent,
			}
			for _, row := range nested[parent][subgroup] {
				report.Rows = append(report.Rows, row)
				subTotal.absorb(row)
			}
			report.Rows = append(report.Rows, subTotal)
			parentTotal.absorb(subTotal)
		}
		report.Rows = append(report.Rows, parentTotal)
		grand.absorb(parentTotal)
	}
	report.Rows = append(report.Rows, grand)

	byDate := map[string][]*models.Transaction{}
	for _, txn := range byTimestamp(txns) {
		byDate[txn.Date] = append(byDate[txn.Date], txn)
	}
	for _, date := range dates {
		report.Transactions = append(report.Transactions, rollupForDate(date, byDate[date]))
	}
	return &report, nil
}

// rollupForDate lists a date's raw operations and carries the movement
// totals alongside. The totals accumulate from "Inward" and "Consume" rows,
// names the mutation layer never writes (it logs AddStockQuantity,
// PushToProduction, and so on), so on real ledgers they stay zero while the
// per-item rows above them carry the movement.
// TODO: re-point these totals at the written operation names once product
// signs off on changing the report payload.
func rollupForDate(date string, txns []*models.Transaction) *DateRollup {
	rollup := DateRollup{Date: date, Operations: []models.Details{}}
	for _, txn := range txns {
		details := txn.Details.WithoutKeys("per_item_opening", "per_item_closing")
		details["operation_type"] = string(txn.OperationType)
		details["timestamp"] = txn.Timestamp
		details["username"] = txn.Username
		rollup.Operations = append(rollup.Operations, details)

		switch txn.OperationType {
		case models.OperationType("Inward"):
			rollup.InwardQty = rollup.InwardQty.Add(txn.Details.Decimal("quantity_added"))
			rollup.InwardAmount = rollup.InwardAmount.Add(txn.Details.Decimal("added_cost"))
		case models.OperationType("Consume"):
			rollup.ConsumptionQty = rollup.ConsumptionQty.Add(txn.Details.Decimal("quantity_consumed"))
			rollup.ConsumptionAmount = rollup.ConsumptionAmount.Add(txn.Details.Decimal("consumption_amount"))
		}
	}
	rollup.InwardAmount = utils.RoundMoney(rollup.InwardAmount)
	rollup.ConsumptionAmount = utils.RoundMoney(rollup.ConsumptionAmount)
	rollup.BalanceQty = rollup.InwardQty.Sub(rollup.ConsumptionQty)
	rollup.BalanceAmount = utils.RoundMoney(rollup.InwardAmount.Sub(rollup.ConsumptionAmount))
	return &rollup
}

func GetDailyReport(ctx context.Context, date string) (*StockFlowReport, error) {
	if date == "" {
		date = utils.TodayIST()
	} else if _, err := utils.ParseDate(date); err != nil {
		return nil, err
	}
	key := reportCacheKey("daily-report", date)
	var cached StockFlowReport
	if reportCacheGet(key, &cached) {
		return &cached, nil
	}
	report, err := stockFlowOverWindow(ctx, date, date)
	if err != nil {
		return nil, err
	}
	reportCacheSet(key, report, dailyReportTTL)
	return report, nil
}

func GetWeeklyReport(ctx context.Context) (*StockFlowReport, error) {
	start, end := utils.LastNDays(7)
	key := reportCacheKey("weekly-report", start, end)
	var cached StockFlowReport
	if reportCacheGet(key, &cached) {
		return &cached, nil
	}
	report, err := stockFlowOverWindow(ctx, start, end)
	if err != nil {
		return nil, err
	}
	reportCacheSet(key, report, dailyReportTTL)
	return report, nil
}

func GetMonthlyReport(ctx context.Context, month string) (*StockFlowReport, error) {
	start, end, err := utils.MonthBounds(month)
	if err != nil {
		return nil, err
	}
	key := reportCacheKey("monthly-report", month)
	var cached StockFlowReport
	if reportCacheGet(key, &cached) {
		return &cached, nil
	}
	report, err := stockFlowOverWindow(ctx, start, end)
	if err != nil {
		return nil, err
	}
	reportCacheSet(key, report, monthlyReportTTL)
	return report, nil
}
