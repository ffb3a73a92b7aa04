// Package storage is the item-level persistence adapter. Every table access in
// the models layer goes through these generic helpers so the caching and retry
// policy lives in one place.
package storage

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/svfabworks/factory_backend/config"
	"github.com/svfabworks/factory_backend/utils"
)

const (
	maxAttempts  = 3
	baseBackoff  = 100 * time.Millisecond
	scanSegments = 4
)

// TableName resolves the gorm table for T. Falls back to the type name when no
// DB handle is available (unit tests exercising cache keys).
func TableName[T any]() string {
	var v T
	db := config.GetDB()
	if db == nil {
		return reflect.TypeOf(v).Name()
	}
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(&v); err != nil || stmt.Schema == nil {
		return reflect.TypeOf(v).Name()
	}
	return stmt.Schema.Table
}

func primaryColumn[T any]() string {
	var v T
	db := config.GetDB()
	if db == nil {
		return "id"
	}
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(&v); err != nil || stmt.Schema == nil || len(stmt.Schema.PrimaryFields) == 0 {
		return "id"
	}
	return stmt.Schema.PrimaryFields[0].DBName
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrRecordNotFound) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "constraint") {
		return false
	}
	return true
}

// withRetry runs fn up to maxAttempts times with exponential backoff. The
// storage backend owns transient-fault recovery; callers see terminal errors.
func withRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(baseBackoff * time.Duration(1<<(attempt-1)))
		}
		err = fn()
		if err == nil || !isTransient(err) {
			return err
		}
	}
	return err
}

// Put writes the full record (create or overwrite) and drops the table's scan
// cache.
func Put[T any](ctx context.Context, item *T) error {
	db := config.GetDB()
	err := withRetry(func() error {
		return db.WithContext(ctx).Save(item).Error
	})
	if err != nil {
		return err
	}
	invalidateScans(TableName[T]())
	return nil
}

// IsDuplicateKey reports whether err is a MySQL duplicate-key violation.
// Callers that pre-check existence use this to close the race between the
// check and the insert.
func IsDuplicateKey(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// Create inserts a new record and fails on a duplicate key.
func Create[T any](ctx context.Context, item *T) error {
	db := config.GetDB()
	err := withRetry(func() error {
		return db.WithContext(ctx).Create(item).Error
	})
	if err != nil {
		return err
	}
	invalidateScans(TableName[T]())
	return nil
}

// Get fetches one record by primary key. Never cached.
func Get[T any](ctx context.Context, key any) (*T, error) {
	db := config.GetDB()
	var result T
	err := withRetry(func() error {
		return db.WithContext(ctx).
			Where(primaryColumn[T]()+" = ?", key).
			First(&result).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

// First fetches one record matching a condition. Never cached.
func First[T any](ctx context.Context, cond string, args ...any) (*T, error) {
	db := config.GetDB()
	var result T
	err := withRetry(func() error {
		return db.WithContext(ctx).Where(cond, args...).First(&result).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

func Delete[T any](ctx context.Context, key any) error {
	db := config.GetDB()
	var v T
	err := withRetry(func() error {
		return db.WithContext(ctx).
			Where(primaryColumn[T]()+" = ?", key).
			Delete(&v).Error
	})
	if err != nil {
		return err
	}
	invalidateScans(TableName[T]())
	return nil
}

// DeleteWhere removes every record matching the condition (purge paths).
func DeleteWhere[T any](ctx context.Context, cond string, args ...any) error {
	db := config.GetDB()
	var v T
	err := withRetry(func() error {
		return db.WithContext(ctx).Where(cond, args...).Delete(&v).Error
	})
	if err != nil {
		return err
	}
	invalidateScans(TableName[T]())
	return nil
}

// Update applies a partial column update by primary key.
func Update[T any](ctx context.Context, key any, values map[string]interface{}) error {
	db := config.GetDB()
	var v T
	err := withRetry(func() error {
		return db.WithContext(ctx).Model(&v).
			Where(primaryColumn[T]()+" = ?", key).
			Updates(values).Error
	})
	if err != nil {
		return err
	}
	invalidateScans(TableName[T]())
	return nil
}

// Query filters by an indexed condition. Never cached; use Scan for the
// cacheable full-table reads.
func Query[T any](ctx context.Context, cond string, args ...any) ([]*T, error) {
	db := config.GetDB()
	var results []*T
	err := withRetry(func() error {
		return db.WithContext(ctx).Where(cond, args...).Find(&results).Error
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Scan reads every record matching the (optional) condition, serving from the
// table's scan cache when enabled.
func Scan[T any](ctx context.Context, cond string, args ...any) ([]*T, error) {
	table := TableName[T]()
	key := scanCacheKey(table, cond, args...)
	var cached []*T
	if hit, err := cacheGet(key, &cached); err == nil && hit {
		return cached, nil
	}

	db := config.GetDB()
	var results []*T
	err := withRetry(func() error {
		tx := db.WithContext(ctx)
		if cond != "" {
			tx = tx.Where(cond, args...)
		}
		return tx.Find(&results).Error
	})
	if err != nil {
		return nil, err
	}
	cacheSet(key, results)
	return results, nil
}

// BatchGet fetches the records whose given column is in keys, preserving no
// particular order.
func BatchGet[T any](ctx context.Context, column string, keys []string) ([]*T, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	db := config.GetDB()
	var results []*T
	err := withRetry(func() error {
		return db.WithContext(ctx).
			Where(column+" IN ?", utils.UniqueSlice(keys)).
			Find(&results).Error
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// SegmentScan fans a full scan out into parallel segments keyed by a hash of
// the primary key and concatenates the results. Only worth it for the large
// ledger and stock tables.
func SegmentScan[T any](ctx context.Context, cond string, args ...any) ([]*T, error) {
	table := TableName[T]()
	key := scanCacheKey(table+":seg", cond, args...)
	var cached []*T
	if hit, err := cacheGet(key, &cached); err == nil && hit {
		return cached, nil
	}

	db := config.GetDB()
	pk := primaryColumn[T]()

	type segResult struct {
		idx  int
		rows []*T
		err  error
	}
	ch := make(chan segResult, scanSegments)
	for i := 0; i < scanSegments; i++ {
		go func(segment int) {
			var rows []*T
			err := withRetry(func() error {
				tx := db.WithContext(ctx).
					Where("MOD(CRC32("+pk+"), ?) = ?", scanSegments, segment)
				if cond != "" {
					tx = tx.Where(cond, args...)
				}
				return tx.Find(&rows).Error
			})
			ch <- segResult{idx: segment, rows: rows, err: err}
		}(i)
	}

	parts := make([][]*T, scanSegments)
	for i := 0; i < scanSegments; i++ {
		res := <-ch
		if res.err != nil {
			return nil, res.err
		}
		parts[res.idx] = res.rows
	}
	var results []*T
	for _, part := range parts {
		results = append(results, part...)
	}
	cacheSet(key, results)
	return results, nil
}

// Count returns the number of records matching the condition.
func Count[T any](ctx context.Context, cond string, args ...any) (int64, error) {
	db := config.GetDB()
	var v T
	var count int64
	err := withRetry(func() error {
		tx := db.WithContext(ctx).Model(&v)
		if cond != "" {
			tx = tx.Where(cond, args...)
		}
		return tx.Count(&count).Error
	})
	return count, err
}
