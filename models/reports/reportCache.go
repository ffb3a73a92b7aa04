package reports

import (
	"strings"
	"time"

	"github.com/svfabworks/factory_backend/config"
)

const (
	dailyReportTTL   = 300 * time.Second
	monthlyReportTTL = 600 * time.Second
)

// reportCacheKey builds the redis key for a cached report. Every key shares
// the "report:" prefix so stock mutations can drop the lot in one sweep.
func reportCacheKey(name string, params ...string) string {
	return "report:" + name + ":" + strings.Join(params, "|")
}

func reportCacheGet(key string, dest interface{}) bool {
	if !config.ReportCacheEnabled() {
		return false
	}
	hit, err := config.GetRedisObject(key, dest)
	if err != nil {
		return false
	}
	return hit
}

func reportCacheSet(key string, v interface{}, ttl time.Duration) {
	if !config.ReportCacheEnabled() {
		return
	}
	if err := config.SetRedisObject(key, v, ttl); err != nil {
		config.LogError(config.GetLogger(), "reports", "reportCacheSet", key, nil, err)
	}
}
