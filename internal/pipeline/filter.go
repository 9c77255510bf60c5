package pipeline

import (
	"strings"
	"time"

	"github.com/theirongolddev/azcost/internal/model"
)

// FilterByTime returns records whose date falls within [since, until).
// A zero bound is open. Undated records survive only when both bounds
// are zero.
func FilterByTime(records []model.UsageRecord, since, until time.Time) []model.UsageRecord {
	if since.IsZero() && until.IsZero() {
		return records
	}

	var result []model.UsageRecord
	for _, r := range records {
		if r.Date.IsZero() {
			continue
		}
		if !since.IsZero() && r.Date.Before(since) {
			continue
		}
		if !until.IsZero() && !r.Date.Before(until) {
			continue
		}
		result = append(result, r)
	}
	return result
}

// FilterByService returns records whose service contains the substring.
func FilterByService(records []model.UsageRecord, service string) []model.UsageRecord {
	if service == "" {
		return records
	}
	var result []model.UsageRecord
	for _, r := range records {
		if containsIgnoreCase(r.Service, service) {
			result = append(result, r)
		}
	}
	return result
}

// FilterByResourceGroup returns records whose resource group contains the substring.
func FilterByResourceGroup(records []model.UsageRecord, group string) []model.UsageRecord {
	if group == "" {
		return records
	}
	var result []model.UsageRecord
	for _, r := range records {
		if containsIgnoreCase(r.ResourceGroup, group) {
			result = append(result, r)
		}
	}
	return result
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
