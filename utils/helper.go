package utils

import (
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

func ProcessValidationErrors(err error) map[string]string {

	validationErrors := err.(validator.ValidationErrors)

	errorResponse := make(map[string]string)

	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}

	return errorResponse
}

func UniqueSlice[T comparable](input []T) []T {
	seen := make(map[T]bool, len(input))
	out := make([]T, 0, len(input))
	for _, v := range input {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// SortedKeys returns a map's keys in ascending order; used wherever output
// ordering must be deterministic (report rows, cache keys).
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CanonicalArgs folds filter arguments into a stable cache-key fragment.
func CanonicalArgs(args ...string) string {
	sorted := append([]string(nil), args...)
	sort.Strings(sorted)
	return strings.Join(sorted, "|")
}

// RoundMoney rounds to 2 decimal places, the scale used for every money figure.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ClampZero floors a decimal at zero. Cost roll-forwards never go negative.
func ClampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
