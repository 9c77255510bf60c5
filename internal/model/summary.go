package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardSummary is the aggregated view of one uploaded cost export.
// It is rebuilt from scratch for every upload and never mutated afterwards.
type DashboardSummary struct {
	TotalCost          decimal.Decimal  `json:"total_cost" yaml:"total_cost"`
	DailyCosts         []DailyCost      `json:"daily_costs" yaml:"daily_costs"`
	ServiceBreakdown   []CostShare      `json:"service_breakdown" yaml:"service_breakdown"`
	ResourceGroupCosts []CostShare      `json:"resource_group_costs" yaml:"resource_group_costs"`
	Recommendations    []Recommendation `json:"recommendations" yaml:"recommendations"`

	KPIs         KPIs         `json:"kpis" yaml:"kpis"`
	Quality      DataQuality  `json:"quality" yaml:"quality"`
	Unattributed Unattributed `json:"unattributed" yaml:"unattributed"`

	Source      SourceInfo `json:"source" yaml:"source"`
	GeneratedAt time.Time  `json:"generated_at" yaml:"generated_at"`
}

// DailyCost holds the summed cost for a single calendar day.
type DailyCost struct {
	Date    time.Time       `json:"-" yaml:"-"`
	Day     string          `json:"date" yaml:"date"`
	Cost    decimal.Decimal `json:"cost" yaml:"cost"`
	Records int             `json:"records" yaml:"records"`
}

// CostShare is one row of a per-key breakdown (service or resource group).
type CostShare struct {
	Name         string          `json:"name" yaml:"name"`
	Cost         decimal.Decimal `json:"cost" yaml:"cost"`
	Records      int             `json:"records" yaml:"records"`
	SharePercent float64         `json:"share_percent" yaml:"share_percent"`
}

// KPIs are the headline numbers shown above every dashboard.
type KPIs struct {
	RecordCount        int             `json:"record_count" yaml:"record_count"`
	Days               int             `json:"days" yaml:"days"`
	PeriodStart        string          `json:"period_start,omitempty" yaml:"period_start,omitempty"`
	PeriodEnd          string          `json:"period_end,omitempty" yaml:"period_end,omitempty"`
	AverageDailyCost   decimal.Decimal `json:"average_daily_cost" yaml:"average_daily_cost"`
	PeakDay            string          `json:"peak_day,omitempty" yaml:"peak_day,omitempty"`
	PeakDayCost        decimal.Decimal `json:"peak_day_cost" yaml:"peak_day_cost"`
	TopService         string          `json:"top_service,omitempty" yaml:"top_service,omitempty"`
	TopResourceGroup   string          `json:"top_resource_group,omitempty" yaml:"top_resource_group,omitempty"`
	ServiceCount       int             `json:"service_count" yaml:"service_count"`
	ResourceGroupCount int             `json:"resource_group_count" yaml:"resource_group_count"`
}

// DataQuality counts records that were missing a field the dashboard groups by.
type DataQuality struct {
	MissingCost          int `json:"missing_cost" yaml:"missing_cost"`
	MissingDate          int `json:"missing_date" yaml:"missing_date"`
	MissingService       int `json:"missing_service" yaml:"missing_service"`
	MissingResourceGroup int `json:"missing_resource_group" yaml:"missing_resource_group"`
}

// Unattributed is cost that could not be placed in a breakdown because the
// record lacked that breakdown's key. Total always equals the breakdown sum
// plus the matching unattributed amount.
type Unattributed struct {
	Daily         decimal.Decimal `json:"daily" yaml:"daily"`
	Service       decimal.Decimal `json:"service" yaml:"service"`
	ResourceGroup decimal.Decimal `json:"resource_group" yaml:"resource_group"`
}

// SourceInfo describes the file a summary was built from.
type SourceInfo struct {
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	Bytes       int64    `json:"bytes" yaml:"bytes"`
	Rows        int      `json:"rows" yaml:"rows"`
	SkippedRows int      `json:"skipped_rows" yaml:"skipped_rows"`
	Columns     []string `json:"columns,omitempty" yaml:"columns,omitempty"`
}

// DailyMap returns the daily costs keyed by day.
func (s DashboardSummary) DailyMap() map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(s.DailyCosts))
	for _, d := range s.DailyCosts {
		m[d.Day] = d.Cost
	}
	return m
}

// ServiceMap returns the service breakdown keyed by service name.
func (s DashboardSummary) ServiceMap() map[string]decimal.Decimal {
	return shareMap(s.ServiceBreakdown)
}

// ResourceGroupMap returns the resource-group breakdown keyed by group name.
func (s DashboardSummary) ResourceGroupMap() map[string]decimal.Decimal {
	return shareMap(s.ResourceGroupCosts)
}

// IsEmpty reports whether the summary was built from zero records.
func (s DashboardSummary) IsEmpty() bool {
	return s.KPIs.RecordCount == 0
}

func shareMap(rows []CostShare) map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		m[r.Name] = r.Cost
	}
	return m
}
