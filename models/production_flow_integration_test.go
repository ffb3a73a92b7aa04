package models_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/svfabworks/factory_backend/config"
	"github.com/svfabworks/factory_backend/models"
	"github.com/svfabworks/factory_backend/storage"
)

func TestProductionFlow(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "factory_test")
	t.Setenv("ASYNC_PRODUCTION_RECALC", "false")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if err := models.MigrateTable(); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}

	d := func(s string) decimal.Decimal {
		v, err := decimal.NewFromString(s)
		if err != nil {
			t.Fatalf("bad decimal %q: %v", s, err)
		}
		return v
	}
	user := "test-operator"

	sheet, err := models.CreateStock(ctx, &models.NewStockItem{
		Name:          "ms-sheet-2mm",
		Quantity:      d("40"),
		CostPerUnit:   d("12.50"),
		GstPercentage: d("18"),
	}, user)
	if err != nil {
		t.Fatalf("CreateStock sheet: %v", err)
	}
	if !sheet.TotalCost.Equal(d("590")) {
		t.Fatalf("sheet total_cost expected 590, got %s", sheet.TotalCost)
	}
	if _, err := models.CreateStock(ctx, &models.NewStockItem{
		Name:          "hinge-set",
		Quantity:      d("25"),
		CostPerUnit:   d("8"),
		GstPercentage: d("18"),
	}, user); err != nil {
		t.Fatalf("CreateStock hinge: %v", err)
	}

	product, err := models.CreateProduct(ctx, &models.NewProduct{
		ProductName: "Standard Locker",
		StockNeeded: models.DecimalMap{
			"ms-sheet-2mm": d("4"),
			"hinge-set":    d("2"),
		},
		LabourCost: d("120"),
	}, user)
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if product.MaxProduce != 10 {
		t.Fatalf("max_produce expected 10, got %d", product.MaxProduce)
	}

	// A run of 20 needs 80 sheets and 40 hinge sets; both are short, and the
	// failure reports the first short component in item-id order without
	// touching stock.
	_, err = models.PushToProduction(ctx, &models.PushToProductionInput{
		ProductId: product.ProductId,
		Quantity:  d("20"),
	}, user)
	insufficient, ok := err.(*models.ErrInsufficientStock)
	if !ok {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if insufficient.ItemId != "hinge-set" {
		t.Fatalf("expected the hinge shortfall first, got %+v", insufficient)
	}
	if !insufficient.Available.Equal(d("25")) || !insufficient.Required.Equal(d("40")) {
		t.Fatalf("hinge shortfall mismatch: %+v", insufficient)
	}
	sheetAfter, err := storage.Get[models.StockItem](ctx, "ms-sheet-2mm")
	if err != nil {
		t.Fatalf("reload sheet: %v", err)
	}
	if !sheetAfter.Quantity.Equal(d("40")) {
		t.Fatalf("failed push must not deduct, sheet quantity %s", sheetAfter.Quantity)
	}

	push, err := models.PushToProduction(ctx, &models.PushToProductionInput{
		ProductId: product.ProductId,
		Quantity:  d("5"),
	}, user)
	if err != nil {
		t.Fatalf("PushToProduction: %v", err)
	}
	// 4*12.50 + 2*8 = 66 per unit
	if !push.ProductionCostPerUnit.Equal(d("66")) {
		t.Fatalf("production_cost_per_unit expected 66, got %s", push.ProductionCostPerUnit)
	}
	if !push.TotalProductionCost.Equal(d("330")) {
		t.Fatalf("total_production_cost expected 330, got %s", push.TotalProductionCost)
	}
	sheetAfter, _ = storage.Get[models.StockItem](ctx, "ms-sheet-2mm")
	if !sheetAfter.Quantity.Equal(d("20")) {
		t.Fatalf("sheet quantity expected 20 after push, got %s", sheetAfter.Quantity)
	}

	undone, err := models.UndoProduction(ctx, push.PushId, user)
	if err != nil {
		t.Fatalf("UndoProduction: %v", err)
	}
	if undone.Status != models.PushStatusUndone {
		t.Fatalf("push status expected UNDONE, got %s", undone.Status)
	}
	sheetAfter, _ = storage.Get[models.StockItem](ctx, "ms-sheet-2mm")
	if !sheetAfter.Quantity.Equal(d("40")) {
		t.Fatalf("undo must restore deductions, sheet quantity %s", sheetAfter.Quantity)
	}
	if _, err := models.UndoProduction(ctx, push.PushId, user); err == nil {
		t.Fatal("undoing an undone push must fail")
	}

	// The per-user undo queue holds 3 ACTIVE entries; extra mutations evict
	// the oldest.
	for i := 0; i < 5; i++ {
		if _, err := models.AddStockQuantity(ctx, &models.AddStockQuantityInput{
			Name:         "hinge-set",
			Quantity:     d("1"),
			SupplierName: "Sharma Steels",
		}, user); err != nil {
			t.Fatalf("AddStockQuantity #%d: %v", i, err)
		}
	}
	active, err := storage.Query[models.UndoAction](ctx, "username = ? AND status = ?", user, models.UndoStatusActive)
	if err != nil {
		t.Fatalf("query undo queue: %v", err)
	}
	if len(active) != 3 {
		t.Fatalf("undo queue expected 3 ACTIVE entries, got %d", len(active))
	}

	// Closing before opening is rejected; after the opening both save, and
	// re-saving the opening updates the same row instead of adding one.
	if _, err := models.SaveClosingStock(ctx, user); err == nil ||
		!strings.Contains(err.Error(), "Opening stock must be saved") {
		t.Fatalf("expected opening-before-closing error, got %v", err)
	}
	if _, err := models.SaveOpeningStock(ctx, user); err != nil {
		t.Fatalf("SaveOpeningStock: %v", err)
	}
	if _, err := models.SaveOpeningStock(ctx, user); err != nil {
		t.Fatalf("SaveOpeningStock upsert: %v", err)
	}
	openings, err := storage.Query[models.Transaction](ctx,
		"operation_type = ?", models.OperationSaveOpeningStock)
	if err != nil {
		t.Fatalf("query opening snapshots: %v", err)
	}
	if len(openings) != 1 {
		t.Fatalf("opening snapshot must upsert per date, got %d rows", len(openings))
	}
	if _, err := models.SaveClosingStock(ctx, user); err != nil {
		t.Fatalf("SaveClosingStock: %v", err)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("factory-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("factory-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=factory_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
