package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/svfabworks/factory_backend/config"
	"github.com/svfabworks/factory_backend/models"
	"github.com/svfabworks/factory_backend/storage"
	"github.com/svfabworks/factory_backend/utils"
)

// ledger-replay rebuilds per-item available quantity from the opening stock
// snapshot of a given date plus every ledger transaction recorded since, then
// diffs the result against the live stock table. With --apply it writes the
// replayed quantities back.
func main() {
	fromDate := flag.String("from", "", "Opening stock date (YYYY-MM-DD). Defaults to today.")
	itemID := flag.String("item", "", "Optional: restrict to a single item id")
	apply := flag.Bool("apply", false, "Write replayed quantities back to the stock table")
	flag.Parse()

	date := strings.TrimSpace(*fromDate)
	if date == "" {
		date = utils.TodayIST()
	} else if _, err := utils.ParseDate(date); err != nil {
		fmt.Fprintf(os.Stderr, "invalid from date: %v\n", err)
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	ctx := context.Background()

	opening, err := models.OpeningQuantities(ctx, date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load opening stock: %v\n", err)
		os.Exit(1)
	}
	if len(opening) == 0 {
		fmt.Fprintf(os.Stderr, "no opening stock snapshot for %s, replaying from zero\n", date)
	}

	txns, err := models.TransactionsSince(ctx, date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load ledger: %v\n", err)
		os.Exit(1)
	}
	models.SortTransactions(txns, true)

	replayed := make(map[string]decimal.Decimal, len(opening))
	for id, qty := range opening {
		replayed[id] = qty
	}
	dropped := map[string]bool{}
	for _, txn := range txns {
		applyTransaction(replayed, dropped, txn)
	}

	current, err := models.LoadStockIndex(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load stock table: %v\n", err)
		os.Exit(1)
	}

	var drifted, fixed int
	for _, id := range utils.SortedKeys(current) {
		if *itemID != "" && id != *itemID {
			continue
		}
		item := current[id]
		want, tracked := replayed[id]
		if !tracked {
			// No opening row and no ledger activity since the replay
			// date, nothing to check against.
			continue
		}
		if item.Quantity.Equal(want) {
			continue
		}
		drifted++
		fmt.Printf("%-30s ledger=%s table=%s drift=%s\n",
			id, want.String(), item.Quantity.String(), item.Quantity.Sub(want).String())
		if !*apply {
			continue
		}
		item.Quantity = want
		item.Recompute()
		item.UpdatedAt = utils.NowISTString()
		if err := storage.Put(ctx, item); err != nil {
			fmt.Fprintf(os.Stderr, "update %s: %v\n", id, err)
			os.Exit(1)
		}
		fixed++
	}
	for id := range replayed {
		if *itemID != "" && id != *itemID {
			continue
		}
		if _, ok := current[id]; !ok && !dropped[id] && replayed[id].Sign() != 0 {
			drifted++
			fmt.Printf("%-30s ledger=%s table=<missing>\n", id, replayed[id].String())
		}
	}

	if drifted == 0 {
		fmt.Printf("replayed %d transactions from %s, stock table matches the ledger\n", len(txns), date)
		return
	}
	if *apply {
		fmt.Printf("replayed %d transactions from %s, %d item(s) drifted, %d corrected\n", len(txns), date, drifted, fixed)
		return
	}
	fmt.Printf("replayed %d transactions from %s, %d item(s) drifted (dry run, use --apply to fix)\n", len(txns), date, drifted)
}

// applyTransaction folds one ledger entry into the replayed quantities.
// Defective moves affect available quantity because defective units are
// carved out of it, not held alongside it.
func applyTransaction(replayed map[string]decimal.Decimal, dropped map[string]bool, txn *models.Transaction) {
	d := txn.Details
	itemID := d.String("item_id")
	switch txn.OperationType {
	case models.OperationCreateStock:
		// Creation logs its fields at the top level, there is no "after".
		if itemID == "" {
			return
		}
		replayed[itemID] = d.Decimal("quantity")
		delete(dropped, itemID)
	case models.OperationUpdateStock:
		if itemID == "" {
			return
		}
		after := models.Details(d.Map("after"))
		replayed[itemID] = after.Decimal("quantity")
		delete(dropped, itemID)
	case models.OperationDeleteStock:
		if itemID == "" {
			return
		}
		delete(replayed, itemID)
		dropped[itemID] = true
	case models.OperationAddStockQuantity:
		replayed[itemID] = replayed[itemID].Add(d.Decimal("quantity_added"))
	case models.OperationSubtractStockQuantity:
		replayed[itemID] = replayed[itemID].Sub(d.Decimal("quantity_subtracted"))
	case models.OperationAddDefectiveGoods:
		replayed[itemID] = replayed[itemID].Sub(d.Decimal("defective_added"))
	case models.OperationSubtractDefectiveGoods:
		replayed[itemID] = replayed[itemID].Add(d.Decimal("defective_subtracted"))
	case models.OperationPushToProduction:
		for id, qty := range d.DecimalMap("deductions") {
			replayed[id] = replayed[id].Sub(qty)
		}
	case models.OperationUndoProduction:
		for id, qty := range d.DecimalMap("deductions") {
			replayed[id] = replayed[id].Add(qty)
		}
	}
}
