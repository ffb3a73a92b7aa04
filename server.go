package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/svfabworks/factory_backend/config"
	"github.com/svfabworks/factory_backend/middlewares"
	"github.com/svfabworks/factory_backend/models"
	"github.com/svfabworks/factory_backend/models/reports"
	"github.com/svfabworks/factory_backend/utils"
	"github.com/svfabworks/factory_backend/workflow"
)

const defaultPort = "8084"

var tracer = otel.Tracer("factory-backend")

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// opFunc is one operation implementation. Identity comes from the request
// context; arguments come from the JSON body or, for reads, query params.
type opFunc func(c *gin.Context) (interface{}, error)

// adminOps require role == admin on top of a valid token.
var adminOps = map[string]bool{
	"DeleteStock":            true,
	"DeleteProduct":          true,
	"DeleteGroup":            true,
	"UndoProduction":         true,
	"DeletePushToProduction": true,
	"DeleteTransactionData":  true,
	"AdminViewUsers":         true,
	"AdminUpdateUser":        true,
}

// publicOps run without a token.
var publicOps = map[string]bool{
	"RegisterUser": true,
	"LoginUser":    true,
}

func bindArgs[T any](c *gin.Context) (*T, error) {
	var input T
	if err := c.ShouldBindBodyWith(&input, binding.JSON); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			fields := utils.SortedKeys(utils.ProcessValidationErrors(validationErrors))
			return nil, errors.New("invalid request: " + strings.Join(fields, ", "))
		}
		return nil, errors.New("invalid request body")
	}
	return &input, nil
}

// stringArg reads an argument from the query string or the JSON body,
// whichever the caller used.
func stringArg(c *gin.Context, key string) string {
	if v := c.Query(key); v != "" {
		return v
	}
	var body map[string]interface{}
	if err := c.ShouldBindBodyWith(&body, binding.JSON); err == nil {
		if v, ok := body[key].(string); ok {
			return v
		}
	}
	return c.Param(key)
}

func callerUsername(c *gin.Context) string {
	username, _ := utils.GetUsernameFromContext(c.Request.Context())
	return username
}

var conflictMarkers = []string{
	"already exist",
	"insufficient stock",
	"must be saved before",
	"is not active",
	"would exceed",
	"is required",
	"must be",
	"invalid",
	"confirmation mismatch",
	"No changes to apply",
	"no components",
	"cannot delete",
	"at least",
	"expected",
	"unknown operation",
}

// respondError maps an operation error onto the response contract: 404 for
// missing records, 400 for validation and business-rule failures, 500 with a
// correlatable error_id for everything else.
func respondError(c *gin.Context, err error) {
	var insufficient *models.ErrInsufficientStock
	if errors.As(err, &insufficient) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     insufficient.Error(),
			"item_id":   insufficient.ItemId,
			"available": insufficient.Available,
			"required":  insufficient.Required,
		})
		return
	}

	msg := err.Error()
	if errors.Is(err, utils.ErrorRecordNotFound) || strings.Contains(msg, "not found") {
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
		return
	}
	for _, marker := range conflictMarkers {
		if strings.Contains(msg, marker) {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
			return
		}
	}

	errorId := utils.ErrorId(err)
	correlationId, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
	config.GetLogger().WithFields(logrus.Fields{
		"error_id":       errorId,
		"correlation_id": correlationId,
		"path":           c.Request.URL.Path,
	}).Error(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "error_id": errorId})
}

func operations() map[string]opFunc {
	ops := map[string]opFunc{
		// stock
		"CreateStock": func(c *gin.Context) (interface{}, error) {
			input, err := bindArgs[models.NewStockItem](c)
			if err != nil {
				return nil, err
			}
			return models.CreateStock(c.Request.Context(), input, callerUsername(c))
		},
		"UpdateStock": func(c *gin.Context) (interface{}, error) {
			input, err := bindArgs[models.UpdateStockInput](c)
			if err != nil {
				return nil, err
			}
			return models.UpdateStock(c.Request.Context(), input, callerUsername(c))
		},
		"DeleteStock": func(c *gin.Context) (interface{}, error) {
			name := stringArg(c, "name")
			if name == "" {
				return nil, errors.New("name is required")
			}
			if err := models.DeleteStock(c.Request.Context(), name, callerUsername(c)); err != nil {
				return nil, err
			}
			return gin.H{"message": "stock deleted"}, nil
		},
		"AddStockQuantity": func(c *gin.Context) (interface{}, error) {
			input, err := bindArgs[models.AddStockQuantityInput](c)
			if err != nil {
				return nil, err
			}
			return models.AddStockQuantity(c.Request.Context(), input, callerUsername(c))
		},
		"SubtractStockQuantity": func(c *gin.Context) (interface{}, error) {
			input, err := bindArgs[models.SubtractStockQuantityInput](c)
			if err != nil {
				return nil, err
			}
			return models.SubtractStockQuantity(c.Request.Context(), input, callerUsername(c))
		},
		"AddDefectiveGoods": func(c *gin.Context) (interface{}, error) {
			input, err := bindArgs[models.DefectiveGoodsInput](c)
			if err != nil {
				return nil, err
			}
			return models.AddDefectiveGoods(c.Request.Context(), input, callerUsername(c))
		},
		"SubtractDefectiveGoods": func(c *gin.Context) (interface{}, error) {
			input, err := bindArgs[models.DefectiveGoodsInput](c)
			if err != nil {
				return nil, err
			}
			return models.SubtractDefectiveGoods(c.Request.Context(), input, callerUsername(c))
		},
		"GetAllStocks": func(c *gin.Context) (interface{}, error) {
			return models.GetAllStocks(c.Request.Context())
		},
		"ListInventoryStock": func(c *gin.Context) (interface{}, error) {
			return models.ListInventoryStock(c.Request.Context())
		},

		// descriptions
		"CreateDescription": func(c *gin.Context) (interface{}, error) {
			itemId := stringArg(c, "item_id")
			if itemId == "" {
				return nil, errors.New("item_id is required")
			}
			return models.CreateDescription(c.Request.Context(), itemId, stringArg(c, "text"), callerUsername(c))
		},
		"GetDescription": func(c *gin.Context) (interface{}, error) {
			itemId := stringArg(c, "item_id")
			if itemId == "" {
				return nil, errors.New("item_id is required")
			}
			return models.GetDescription(c.Request.Context(), itemId)
		},
		"GetAllDescriptions": func(c *gin.Context) (interface{}, error) {
			return models.GetAllDescriptions(c.Request.Context())
		},

		// snapshots
		"SaveOpeningStock": func(c *gin.Context) (interface{}, error) {
			return models.SaveOpeningStock(c.Request.Context(), callerUsername(c))
		},
		"SaveClosingStock": func(c *gin.Context) (interface{}, error) {
			return models.SaveClosingStock(c.Request.Context(), callerUsername(c))
		},

		// products
		"CreateProduct": func(c *gin.Context) (interface{}, error) {
			input, err := bindArgs[models.NewProduct](c)
			if err != nil {
				return nil, err
			}
			return models.CreateProduct(c.Request.Context(), input, callerUsername(c))
		},
		"UpdateProduct": func(c *gin.Context) (interface{}, error) {
			input, err := bindArgs[models.UpdateProductInput](c)
			if err != nil {
				return nil, err
			}
			return models.UpdateProduct(c.Request.Context(), input, callerUsername(c))
		},
		"DeleteProduct": func(c *gin.Context) (interface{}, error) {
			productId := stringArg(c, "product_id")
			if productId == "" {
				return nil, errors.New("product_id is required")
			}
			if err := models.DeleteProduct(c.Request.Context(), productId, callerUsername(c)); err != nil {
				return nil, err
			}
			return gin.H{"message": "product deleted"}, nil
		},
		"GetAllProducts": func(c *gin.Context) (interface{}, error) {
			return models.GetAllProducts(c.Request.Context())
		},
		"AlterProduct": func(c *gin.Context) (interface{}, error) {
			input, err := bindArgs[models.AlterProductInput](c)
			if err != nil {
				return nil, err
			}
			return models.AlterProductComponents(c.Request.Context(), input, callerUsername(c))
		},
		"UpdateProductDetails": func(c *gin.Context) (interface{}, error) {
			input, err := bindArgs[models.UpdateProductDetailsInput](c)
			if err != nil {
				return nil, err
			}
			return models.UpdateProductDetails(c.Request.Context(), input, callerUsername(c))
		},

		// production
		"PushToProduction": func(c *gin.Context) (interface{}, error) {
			input, err := bindArgs[models.PushToProductionInput](c)
			if err != nil {
				return nil, err
			}
			return models.PushToProduction(c.Request.Context(), input, callerUsername(c))
		},
		"UndoProduction": func(c *gin.Context) (interface{}, error) {
			return models.UndoProduction(c.Request.Context(), stringArg(c, "push_id"), callerUsername(c))
		},
		"DeletePushToProduction": func(c *gin.Context) (interface{}, error) {
			pushId := stringArg(c, "push_id")
			if pushId == "" {
				return nil, errors.New("push_id is required")
			}
			if err := models.DeletePushToProduction(c.Request.Context(), pushId); err != nil {
				return nil, err
			}
			return gin.H{"message": "push record deleted"}, nil
		},
		"GetDailyPushToProduction": func(c *gin.Context) (interface{}, error) {
			return models.GetDailyPushToProduction(c.Request.Context(), stringArg(c, "date"))
		},
		"GetWeeklyPushToProduction": func(c *gin.Context) (interface{}, error) {
			return models.GetWeeklyPushToProduction(c.Request.Context())
		},
		"GetMonthlyPushToProduction": func(c *gin.Context) (interface{}, error) {
			return models.GetMonthlyPushToProduction(c.Request.Context(), stringArg(c, "month"))
		},
		"GetMonthlyProductionSummary": func(c *gin.Context) (interface{}, error) {
			return models.GetMonthlyProductionSummary(c.Request.Context(), stringArg(c, "month"))
		},

		// reports
		"GetDailyReport": func(c *gin.Context) (interface{}, error) {
			return reports.GetDailyReport(c.Request.Context(), stringArg(c, "date"))
		},
		"GetWeeklyReport": func(c *gin.Context) (interface{}, error) {
			return reports.GetWeeklyReport(c.Request.Context())
		},
		"GetMonthlyReport": func(c *gin.Context) (interface{}, error) {
			return reports.GetMonthlyReport(c.Request.Context(), stringArg(c, "month"))
		},
		"GetDailyConsumptionSummary": func(c *gin.Context) (interface{}, error) {
			return reports.GetDailyConsumptionSummary(c.Request.Context(), stringArg(c, "report_date"))
		},
		"GetWeeklyConsumptionSummary": func(c *gin.Context) (interface{}, error) {
			return reports.GetWeeklyConsumptionSummary(c.Request.Context())
		},
		"GetMonthlyConsumptionSummary": func(c *gin.Context) (interface{}, error) {
			return reports.GetMonthlyConsumptionSummary(c.Request.Context(), stringArg(c, "month"))
		},
		"GetDailyInward": func(c *gin.Context) (interface{}, error) {
			return reports.GetDailyInward(c.Request.Context(), stringArg(c, "date"))
		},
		"GetWeeklyInward": func(c *gin.Context) (interface{}, error) {
			return reports.GetWeeklyInward(c.Request.Context())
		},
		"GetMonthlyInward": func(c *gin.Context) (interface{}, error) {
			return reports.GetMonthlyInward(c.Request.Context(), stringArg(c, "month"))
		},
		"GetMonthlyInwardGrid": func(c *gin.Context) (interface{}, error) {
			return reports.GetMonthlyInwardGrid(c.Request.Context(), stringArg(c, "month"))
		},
		"GetMonthlyOutwardGrid": func(c *gin.Context) (interface{}, error) {
			return reports.GetMonthlyOutwardGrid(c.Request.Context(), stringArg(c, "month"))
		},
		"GetItemHistory": func(c *gin.Context) (interface{}, error) {
			input := &reports.ItemHistoryInput{
				ItemId:   stringArg(c, "item_id"),
				DateFrom: stringArg(c, "date_from"),
				DateTo:   stringArg(c, "date_to"),
				Order:    stringArg(c, "order"),
			}
			if input.ItemId == "" {
				return nil, errors.New("item_id is required")
			}
			return reports.GetItemHistory(c.Request.Context(), input)
		},

		// ledger
		"GetAllStockTransactions": func(c *gin.Context) (interface{}, error) {
			return models.GetAllStockTransactions(c.Request.Context())
		},
		"GetTodayLogs": func(c *gin.Context) (interface{}, error) {
			return models.GetTodayLogs(c.Request.Context())
		},
		"DeleteTransactionData": func(c *gin.Context) (interface{}, error) {
			if err := models.DeleteTransactionData(c.Request.Context(), stringArg(c, "confirm")); err != nil {
				return nil, err
			}
			return gin.H{"message": "transaction data deleted"}, nil
		},

		// groups
		"CreateGroup": func(c *gin.Context) (interface{}, error) {
			input, err := bindArgs[models.NewGroup](c)
			if err != nil {
				return nil, err
			}
			return models.CreateGroup(c.Request.Context(), input)
		},
		"ListGroups": func(c *gin.Context) (interface{}, error) {
			return models.ListGroups(c.Request.Context())
		},
		"DeleteGroup": func(c *gin.Context) (interface{}, error) {
			groupId := stringArg(c, "group_id")
			if groupId == "" {
				return nil, errors.New("group_id is required")
			}
			if err := models.DeleteGroup(c.Request.Context(), groupId); err != nil {
				return nil, err
			}
			return gin.H{"message": "group deleted"}, nil
		},

		// users
		"RegisterUser": func(c *gin.Context) (interface{}, error) {
			input, err := bindArgs[models.NewUser](c)
			if err != nil {
				return nil, err
			}
			return models.RegisterUser(c.Request.Context(), input)
		},
		"LoginUser": func(c *gin.Context) (interface{}, error) {
			input, err := bindArgs[models.LoginInput](c)
			if err != nil {
				return nil, err
			}
			return models.LoginUser(c.Request.Context(), input)
		},
		"Logout": func(c *gin.Context) (interface{}, error) {
			token, ok := utils.GetTokenFromContext(c.Request.Context())
			if !ok {
				return nil, errors.New("unauthorized")
			}
			validated, err := utils.JwtValidate(token)
			if err != nil {
				return nil, err
			}
			if claims, ok := validated.Claims.(*utils.JwtCustomClaim); ok {
				if err := utils.BlacklistToken(token, claims.ExpiresAt); err != nil {
					return nil, err
				}
			}
			return gin.H{"message": "logged out"}, nil
		},
		"AdminViewUsers": func(c *gin.Context) (interface{}, error) {
			return models.AdminViewUsers(c.Request.Context())
		},
		"AdminUpdateUser": func(c *gin.Context) (interface{}, error) {
			input, err := bindArgs[models.UpdateUserInput](c)
			if err != nil {
				return nil, err
			}
			return models.AdminUpdateUser(c.Request.Context(), input)
		},

		// undo
		"UndoAction": func(c *gin.Context) (interface{}, error) {
			input := &models.UndoActionInput{}
			if undoId := stringArg(c, "undo_id"); undoId != "" {
				input.UndoId = &undoId
			}
			return models.PerformUndoAction(c.Request.Context(), callerUsername(c), input)
		},

		// casting
		"CreateCastingProduct": func(c *gin.Context) (interface{}, error) {
			input, err := bindArgs[models.NewCastingProduct](c)
			if err != nil {
				return nil, err
			}
			return models.CreateCastingProduct(c.Request.Context(), input)
		},
		"MoveToProduction": func(c *gin.Context) (interface{}, error) {
			input, err := bindArgs[models.MoveToProductionInput](c)
			if err != nil {
				return nil, err
			}
			return models.MoveCastingToProduction(c.Request.Context(), input, callerUsername(c))
		},
		"DeleteCastingProduct": func(c *gin.Context) (interface{}, error) {
			castingId := stringArg(c, "casting_id")
			if castingId == "" {
				return nil, errors.New("casting_id is required")
			}
			if err := models.DeleteCastingProduct(c.Request.Context(), castingId); err != nil {
				return nil, err
			}
			return gin.H{"message": "casting product deleted"}, nil
		},
		"GetAllCastingProducts": func(c *gin.Context) (interface{}, error) {
			return models.GetAllCastingProducts(c.Request.Context())
		},

		// goods received notes
		"CreateGRN": func(c *gin.Context) (interface{}, error) {
			input, err := bindArgs[models.GrnInput](c)
			if err != nil {
				return nil, err
			}
			return models.CreateGRN(c.Request.Context(), input, callerUsername(c))
		},
		"GetGRN": func(c *gin.Context) (interface{}, error) {
			grnId := stringArg(c, "grn_id")
			if grnId == "" {
				return nil, errors.New("grn_id is required")
			}
			return models.GetGRN(c.Request.Context(), grnId)
		},
		"ListGRN": func(c *gin.Context) (interface{}, error) {
			return models.ListGRN(c.Request.Context(), stringArg(c, "start_date"), stringArg(c, "end_date"))
		},
		"UpdateGRN": func(c *gin.Context) (interface{}, error) {
			input, err := bindArgs[models.UpdateGrnInput](c)
			if err != nil {
				return nil, err
			}
			return models.UpdateGRN(c.Request.Context(), input)
		},
		"DeleteGRN": func(c *gin.Context) (interface{}, error) {
			grnId := stringArg(c, "grn_id")
			if grnId == "" {
				return nil, errors.New("grn_id is required")
			}
			if err := models.DeleteGRN(c.Request.Context(), grnId); err != nil {
				return nil, err
			}
			return gin.H{"message": "grn record deleted"}, nil
		},
	}
	// Long-form names some clients still send.
	ops["AlterProductComponents"] = ops["AlterProduct"]
	ops["LogoutUser"] = ops["Logout"]
	return ops
}

// runOperation enforces the per-operation auth policy and executes it.
func runOperation(c *gin.Context, name string, ops map[string]opFunc) {
	op, ok := ops[name]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown operation: " + name})
		return
	}
	if !publicOps[name] {
		if _, ok := utils.GetUsernameFromContext(c.Request.Context()); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
	}
	if adminOps[name] {
		if isAdmin, ok := utils.GetIsAdminFromContext(c.Request.Context()); !ok || !isAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin required"})
			return
		}
	}
	spanCtx, span := tracer.Start(c.Request.Context(), "op."+name)
	c.Request = c.Request.WithContext(spanCtx)
	result, err := op(c)
	span.End()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// operationDispatchHandler routes {"operation": "<Name>", ...} bodies.
func operationDispatchHandler(ops map[string]opFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		var envelope struct {
			Operation string `json:"operation"`
		}
		if err := c.ShouldBindBodyWith(&envelope, binding.JSON); err != nil || envelope.Operation == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "operation is required"})
			return
		}
		runOperation(c, envelope.Operation, ops)
	}
}

func restHandler(name string, ops map[string]opFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		runOperation(c, name, ops)
	}
}

func exportReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Writer.Header().Set("Content-Disposition", "attachment; filename=stock-flow.xlsx")
		if err := reports.ExportStockFlowExcel(c.Request.Context(), c.Query("date"), c.Query("month"), c.Writer); err != nil {
			respondError(c, err)
		}
	}
}

func registerRoutes(r *gin.Engine, ops map[string]opFunc) {
	r.POST("/api", operationDispatchHandler(ops))

	api := r.Group("/api")
	{
		api.POST("/users/register", restHandler("RegisterUser", ops))
		api.POST("/users/login", restHandler("LoginUser", ops))
		api.POST("/users/logout", restHandler("Logout", ops))
		api.GET("/admin/users", middlewares.RequireAdmin(), restHandler("AdminViewUsers", ops))
		api.PUT("/admin/users", middlewares.RequireAdmin(), restHandler("AdminUpdateUser", ops))

		api.POST("/stocks", restHandler("CreateStock", ops))
		api.PUT("/stocks", restHandler("UpdateStock", ops))
		api.DELETE("/stocks/:name", restHandler("DeleteStock", ops))
		api.GET("/stocks", restHandler("GetAllStocks", ops))
		api.GET("/stocks/inventory", restHandler("ListInventoryStock", ops))
		api.POST("/stocks/add", restHandler("AddStockQuantity", ops))
		api.POST("/stocks/subtract", restHandler("SubtractStockQuantity", ops))
		api.POST("/stocks/defective/add", restHandler("AddDefectiveGoods", ops))
		api.POST("/stocks/defective/subtract", restHandler("SubtractDefectiveGoods", ops))

		api.POST("/descriptions", restHandler("CreateDescription", ops))
		api.GET("/descriptions", restHandler("GetAllDescriptions", ops))
		api.GET("/descriptions/:item_id", restHandler("GetDescription", ops))

		api.POST("/snapshots/opening", restHandler("SaveOpeningStock", ops))
		api.POST("/snapshots/closing", restHandler("SaveClosingStock", ops))

		api.POST("/products", restHandler("CreateProduct", ops))
		api.PUT("/products", restHandler("UpdateProduct", ops))
		api.DELETE("/products/:product_id", restHandler("DeleteProduct", ops))
		api.GET("/products", restHandler("GetAllProducts", ops))
		api.POST("/products/alter", restHandler("AlterProduct", ops))
		api.PUT("/products/details", restHandler("UpdateProductDetails", ops))

		api.POST("/production/push", restHandler("PushToProduction", ops))
		api.POST("/production/undo", restHandler("UndoProduction", ops))
		api.DELETE("/production/:push_id", restHandler("DeletePushToProduction", ops))
		api.GET("/production/daily", restHandler("GetDailyPushToProduction", ops))
		api.GET("/production/weekly", restHandler("GetWeeklyPushToProduction", ops))
		api.GET("/production/monthly", restHandler("GetMonthlyPushToProduction", ops))
		api.GET("/production/summary", restHandler("GetMonthlyProductionSummary", ops))

		api.GET("/reports/daily", restHandler("GetDailyReport", ops))
		api.GET("/reports/weekly", restHandler("GetWeeklyReport", ops))
		api.GET("/reports/monthly", restHandler("GetMonthlyReport", ops))
		api.GET("/reports/consumption/daily", restHandler("GetDailyConsumptionSummary", ops))
		api.GET("/reports/consumption/weekly", restHandler("GetWeeklyConsumptionSummary", ops))
		api.GET("/reports/consumption/monthly", restHandler("GetMonthlyConsumptionSummary", ops))
		api.GET("/reports/inward/daily", restHandler("GetDailyInward", ops))
		api.GET("/reports/inward/weekly", restHandler("GetWeeklyInward", ops))
		api.GET("/reports/inward/monthly", restHandler("GetMonthlyInward", ops))
		api.GET("/reports/grid/inward", restHandler("GetMonthlyInwardGrid", ops))
		api.GET("/reports/grid/outward", restHandler("GetMonthlyOutwardGrid", ops))
		api.GET("/reports/item-history", restHandler("GetItemHistory", ops))

		api.GET("/transactions", restHandler("GetAllStockTransactions", ops))
		api.GET("/transactions/today", restHandler("GetTodayLogs", ops))
		api.POST("/transactions/purge", restHandler("DeleteTransactionData", ops))

		api.POST("/groups", restHandler("CreateGroup", ops))
		api.GET("/groups", restHandler("ListGroups", ops))
		api.DELETE("/groups/:group_id", restHandler("DeleteGroup", ops))

		api.POST("/undo", restHandler("UndoAction", ops))

		api.POST("/casting", restHandler("CreateCastingProduct", ops))
		api.GET("/casting", restHandler("GetAllCastingProducts", ops))
		api.POST("/casting/move", restHandler("MoveToProduction", ops))
		api.DELETE("/casting/:casting_id", restHandler("DeleteCastingProduct", ops))

		api.POST("/grn", restHandler("CreateGRN", ops))
		api.GET("/grn", restHandler("ListGRN", ops))
		api.GET("/grn/:grn_id", restHandler("GetGRN", ops))
		api.PUT("/grn", restHandler("UpdateGRN", ops))
		api.DELETE("/grn/:grn_id", restHandler("DeleteGRN", ops))
	}

	r.GET("/export/report", middlewares.RequireAuth(), exportReportHandler())
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server before the dependencies connect; until DB and
	// Redis are ready, app endpoints return 503.
	r := gin.New()
	r.Use(middlewares.SessionMiddleware())
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", "X-Correlation-Id")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		window := 60
		if v, err := strconv.Atoi(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); err == nil && v > 0 {
			window = v
		}
		limit := int64(600)
		if v, err := strconv.ParseInt(os.Getenv("RATE_LIMIT_MAX_REQUESTS"), 10, 64); err == nil && v > 0 {
			limit = v
		}
		rateLimiter := middlewares.NewRateLimiter(config.GetRedisDB(), limit, time.Duration(window)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(middlewares.AuthMiddleware())
	r.Use(middlewares.LoaderMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	registerRoutes(r, operations())
	r.NoRoute(customNotFoundHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		if err := models.MigrateTable(); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Panic(err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	if config.AsyncProductionRecalc() {
		go workflow.RunProductionRecalcWorker(workerCtx)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:" + port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}
