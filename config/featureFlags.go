package config

import (
	"os"
	"strings"
)

func envFlag(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y" || v == "on"
}

// AsyncProductionRecalc moves the post-mutation max-produce recompute onto the
// background worker instead of running it inline.
//
// Set via env:
// - ASYNC_PRODUCTION_RECALC=true
func AsyncProductionRecalc() bool {
	return envFlag("ASYNC_PRODUCTION_RECALC")
}

// ScanCacheEnabled gates the storage-level scan cache (120s TTL).
//
// Set via env:
// - ENABLE_SCAN_CACHE=true
func ScanCacheEnabled() bool {
	return envFlag("ENABLE_SCAN_CACHE")
}

// ReportCacheEnabled gates the report output cache.
//
// Set via env:
// - ENABLE_REPORT_CACHE=true
func ReportCacheEnabled() bool {
	return envFlag("ENABLE_REPORT_CACHE")
}
