// Package model defines domain types for azcost billing records and summaries.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DayLayout is the canonical calendar-day key format.
const DayLayout = "2006-01-02"

// UsageRecord is one billed line item from an Azure cost export.
// Missing fields are left at their zero value; HasCost distinguishes a
// genuine zero charge from an absent or unparsable cost cell.
type UsageRecord struct {
	Row           int
	Date          time.Time
	Service       string
	ResourceGroup string
	Cost          decimal.Decimal
	HasCost       bool

	// Extra holds the remaining columns keyed by their original header.
	Extra map[string]string
}

// Day returns the record's calendar-day key, or "" when it has no date.
func (r UsageRecord) Day() string {
	if r.Date.IsZero() {
		return ""
	}
	return r.Date.Format(DayLayout)
}
