package storage

import (
	"fmt"
	"time"

	"github.com/svfabworks/factory_backend/config"
	"github.com/svfabworks/factory_backend/utils"
)

// Scan results are cached per (table, canonical filter args) for a short TTL.
// Any write to a table drops every scan key under its prefix, so stale windows
// are bounded by the TTL only when redis invalidation itself fails.
const scanCacheTTL = 120 * time.Second

func scanCacheKey(table string, cond string, args ...any) string {
	strArgs := make([]string, 0, len(args)+1)
	if cond != "" {
		strArgs = append(strArgs, cond)
	}
	for _, a := range args {
		strArgs = append(strArgs, fmt.Sprint(a))
	}
	return "scan:" + table + ":" + utils.CanonicalArgs(strArgs...)
}

func cacheGet(key string, dest interface{}) (bool, error) {
	if !config.ScanCacheEnabled() {
		return false, nil
	}
	return config.GetRedisObject(key, dest)
}

func cacheSet(key string, obj interface{}) {
	if !config.ScanCacheEnabled() {
		return
	}
	if err := config.SetRedisObject(key, obj, scanCacheTTL); err != nil {
		config.LogError(config.GetLogger(), "storage", "cacheSet", key, nil, err)
	}
}

func invalidateScans(table string) {
	if err := config.RemoveRedisPrefix("scan:" + table + ":"); err != nil {
		config.LogError(config.GetLogger(), "storage", "invalidateScans", table, nil, err)
	}
}
