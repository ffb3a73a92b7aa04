package reports

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/svfabworks/factory_backend/models"
	"github.com/svfabworks/factory_backend/utils"
)

// InwardReportRow summarises one item's receipts on one date. new_quantity
// comes from the last receipt's post-write availability; existing_quantity is
// backed out of the first receipt of the day.
type InwardReportRow struct {
	ItemId           string          `json:"item_id"`
	StockName        string          `json:"stock_name"`
	InwardQuantity   decimal.Decimal `json:"inward_quantity"`
	AddedCost        decimal.Decimal `json:"added_cost"`
	NewQuantity      decimal.Decimal `json:"new_quantity"`
	ExistingQuantity decimal.Decimal `json:"existing_quantity"`
	Suppliers        []string        `json:"suppliers"`
	Date             string          `json:"date"`
}

// InwardReport nests date then group then subgroup.
type InwardReport struct {
	StartDate           string                                        `json:"start_date"`
	EndDate             string                                        `json:"end_date"`
	Dates               map[string]map[string]map[string][]*InwardReportRow `json:"dates"`
	TotalInwardQuantity decimal.Decimal                               `json:"total_inward_quantity"`
	TotalInwardAmount   decimal.Decimal                               `json:"total_inward_amount"`
}

func inwardOverWindow(ctx context.Context, start, end string) (*InwardReport, error) {
	dates, err := utils.DateRange(start, end)
	if err != nil {
		return nil, err
	}
	txns, err := models.TransactionsBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	received := ExtractInward(txns)
	touched := make([]string, 0, len(received))
	for _, in := range received {
		touched = append(touched, in.ItemId)
	}
	cat, err := catalogueFor(ctx, touched)
	if err != nil {
		return nil, err
	}

	byDate := map[string][]*models.Transaction{}
	for _, txn := range byTimestamp(txns) {
		byDate[txn.Date] = append(byDate[txn.Date], txn)
	}

	report := InwardReport{
		StartDate: start,
		EndDate:   end,
		Dates:     map[string]map[string]map[string][]*InwardReportRow{},
	}
	for _, date := range dates {
		report.Dates[date] = map[string]map[string][]*InwardReportRow{}

		perItem := map[string]*InwardReportRow{}
		for _, in := range ExtractInward(byDate[date]) {
			row, ok := perItem[in.ItemId]
			if !ok {
				name := in.ItemId
				if item, found := cat.stocks[in.ItemId]; found {
					name = item.Name
				}
				row = &InwardReportRow{
					ItemId:           in.ItemId,
					StockName:        name,
					Date:             date,
					ExistingQuantity: in.NewAvailable.Sub(in.QuantityAdded),
				}
				perItem[in.ItemId] = row
			}
			row.InwardQuantity = row.InwardQuantity.Add(in.QuantityAdded)
			row.AddedCost = utils.RoundMoney(row.AddedCost.Add(in.AddedCost))
			row.NewQuantity = in.NewAvailable
			if in.SupplierName != "" {
				row.Suppliers = append(row.Suppliers, in.SupplierName)
			}
			report.TotalInwardQuantity = report.TotalInwardQuantity.Add(in.QuantityAdded)
			report.TotalInwardAmount = report.TotalInwardAmount.Add(in.AddedCost)
		}

		for _, itemId := range utils.SortedKeys(perItem) {
			row := perItem[itemId]
			row.Suppliers = utils.UniqueSlice(row.Suppliers)
			group, subgroup := cat.tiers(itemId)
			if report.Dates[date][group] == nil {
				report.Dates[date][group] = map[string][]*InwardReportRow{}
			}
			report.Dates[date][group][subgroup] = append(report.Dates[date][group][subgroup], row)
		}
	}
	report.TotalInwardAmount = utils.RoundMoney(report.TotalInwardAmount)
	return &report, nil
}

// byTimestamp returns the transactions in chronological order without
// mutating the caller's slice.
func byTimestamp(txns []*models.Transaction) []*models.Transaction {
	ordered := append([]*models.Transaction(nil), txns...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp < ordered[j].Timestamp
	})
	return ordered
}

func GetDailyInward(ctx context.Context, date string) (*InwardReport, error) {
	if date == "" {
		date = utils.TodayIST()
	} else if _, err := utils.ParseDate(date); err != nil {
		return nil, err
	}
	key := reportCacheKey("daily-inward", date)
	var cached InwardReport
	if reportCacheGet(key, &cached) {
		return &cached, nil
	}
	report, err := inwardOverWindow(ctx, date, date)
	if err != nil {
		return nil, err
	}
	reportCacheSet(key, report, dailyReportTTL)
	return report, nil
}

func GetWeeklyInward(ctx context.Context) (*InwardReport, error) {
	start, end := utils.LastNDays(7)
	key := reportCacheKey("weekly-inward", start, end)
	var cached InwardReport
	if reportCacheGet(key, &cached) {
		return &cached, nil
	}
	report, err := inwardOverWindow(ctx, start, end)
	if err != nil {
		return nil, err
	}
	reportCacheSet(key, report, dailyReportTTL)
	return report, nil
}

func GetMonthlyInward(ctx context.Context, month string) (*InwardReport, error) {
	start, end, err := utils.MonthBounds(month)
	if err != nil {
		return nil, err
	}
	key := reportCacheKey("monthly-inward", month)
	var cached InwardReport
	if reportCacheGet(key, &cached) {
		return &cached, nil
	}
	report, err := inwardOverWindow(ctx, start, end)
	if err != nil {
		return nil, err
	}
	reportCacheSet(key, report, monthlyReportTTL)
	return report, nil
}
