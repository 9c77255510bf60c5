// Package pipeline turns parsed usage records into dashboard summaries.
package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/azcost/internal/config"
	"github.com/theirongolddev/azcost/internal/model"
	"github.com/theirongolddev/azcost/internal/source"
)

// ErrNoCostColumn is returned when rows exist but none of the headers
// could be recognized as the cost column.
var ErrNoCostColumn = errors.New("no usable cost column found")

var hundred = decimal.NewFromInt(100)

// Options controls filtering and recommendation thresholds for Process.
type Options struct {
	Since         time.Time
	Until         time.Time
	Service       string
	ResourceGroup string

	Rules  config.RecommendationConfig
	Budget *float64
}

// DefaultOptions returns options with no filters and default thresholds.
func DefaultOptions() Options {
	return Options{Rules: config.DefaultRecommendations()}
}

// Process builds a dashboard summary from a parsed dataset. It is pure:
// the same dataset and options always produce an identical summary.
// An empty dataset yields an all-zero summary and no error.
func Process(ds source.Dataset, opts Options) (model.DashboardSummary, error) {
	if len(ds.Records) > 0 && !ds.Columns.Has(source.RoleCost) {
		return model.DashboardSummary{}, fmt.Errorf("%w among headers [%s]",
			ErrNoCostColumn, strings.Join(ds.Headers, ", "))
	}

	records := ds.Records
	records = FilterByTime(records, opts.Since, opts.Until)
	records = FilterByService(records, opts.Service)
	records = FilterByResourceGroup(records, opts.ResourceGroup)

	s := Summarize(records)
	s.Recommendations = Recommend(s, opts.Rules, opts.Budget)
	s.Source = model.SourceInfo{
		Name:        ds.Name,
		Bytes:       ds.Bytes,
		Rows:        ds.Rows,
		SkippedRows: ds.SkippedRows,
		Columns:     ds.Headers,
	}
	return s, nil
}

// Summarize computes totals, breakdowns and KPIs for the given records.
// Recommendations are left empty.
func Summarize(records []model.UsageRecord) model.DashboardSummary {
	var s model.DashboardSummary

	s.TotalCost, s.Quality = Totals(records)
	s.DailyCosts, s.Unattributed.Daily = AggregateDays(records)
	s.ServiceBreakdown, s.Unattributed.Service = AggregateServices(records)
	s.ResourceGroupCosts, s.Unattributed.ResourceGroup = AggregateResourceGroups(records)
	s.Recommendations = []model.Recommendation{}

	applyShares(s.ServiceBreakdown, s.TotalCost)
	applyShares(s.ResourceGroupCosts, s.TotalCost)
	s.KPIs = computeKPIs(len(records), s)

	return s
}

// Totals sums every record's cost and counts records missing a field.
// Records without a usable cost contribute zero.
func Totals(records []model.UsageRecord) (decimal.Decimal, model.DataQuality) {
	total := decimal.Zero
	var q model.DataQuality

	for _, r := range records {
		if r.HasCost {
			total = total.Add(r.Cost)
		} else {
			q.MissingCost++
		}
		if r.Date.IsZero() {
			q.MissingDate++
		}
		if r.Service == "" {
			q.MissingService++
		}
		if r.ResourceGroup == "" {
			q.MissingResourceGroup++
		}
	}
	return total, q
}

// AggregateDays sums cost per calendar day, sorted oldest first. The
// second return value is the cost of records that carry no date.
func AggregateDays(records []model.UsageRecord) ([]model.DailyCost, decimal.Decimal) {
	dayMap := make(map[string]*model.DailyCost)
	unattributed := decimal.Zero

	for _, r := range records {
		cost := recordCost(r)
		key := r.Day()
		if key == "" {
			unattributed = unattributed.Add(cost)
			continue
		}
		dc, ok := dayMap[key]
		if !ok {
			dc = &model.DailyCost{Date: r.Date, Day: key, Cost: decimal.Zero}
			dayMap[key] = dc
		}
		dc.Cost = dc.Cost.Add(cost)
		dc.Records++
	}

	days := make([]model.DailyCost, 0, len(dayMap))
	for _, dc := range dayMap {
		days = append(days, *dc)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Day < days[j].Day
	})

	return days, unattributed
}

// AggregateServices sums cost per service name, most expensive first.
func AggregateServices(records []model.UsageRecord) ([]model.CostShare, decimal.Decimal) {
	return aggregateBy(records, func(r model.UsageRecord) string { return r.Service })
}

// AggregateResourceGroups sums cost per resource group, most expensive first.
func AggregateResourceGroups(records []model.UsageRecord) ([]model.CostShare, decimal.Decimal) {
	return aggregateBy(records, func(r model.UsageRecord) string { return r.ResourceGroup })
}

func aggregateBy(records []model.UsageRecord, key func(model.UsageRecord) string) ([]model.CostShare, decimal.Decimal) {
	groupMap := make(map[string]*model.CostShare)
	unattributed := decimal.Zero

	for _, r := range records {
		cost := recordCost(r)
		name := key(r)
		if name == "" {
			unattributed = unattributed.Add(cost)
			continue
		}
		cs, ok := groupMap[name]
		if !ok {
			cs = &model.CostShare{Name: name, Cost: decimal.Zero}
			groupMap[name] = cs
		}
		cs.Cost = cs.Cost.Add(cost)
		cs.Records++
	}

	// Sort by cost descending, name ascending on ties
	groups := make([]model.CostShare, 0, len(groupMap))
	for _, cs := range groupMap {
		groups = append(groups, *cs)
	}
	sort.Slice(groups, func(i, j int) bool {
		if c := groups[i].Cost.Cmp(groups[j].Cost); c != 0 {
			return c > 0
		}
		return groups[i].Name < groups[j].Name
	})

	return groups, unattributed
}

func recordCost(r model.UsageRecord) decimal.Decimal {
	if !r.HasCost {
		return decimal.Zero
	}
	return r.Cost
}

func applyShares(rows []model.CostShare, total decimal.Decimal) {
	if total.IsZero() {
		return
	}
	for i := range rows {
		rows[i].SharePercent = rows[i].Cost.Div(total).Mul(hundred).Round(2).InexactFloat64()
	}
}

func computeKPIs(recordCount int, s model.DashboardSummary) model.KPIs {
	k := model.KPIs{
		RecordCount:        recordCount,
		Days:               len(s.DailyCosts),
		AverageDailyCost:   decimal.Zero,
		PeakDayCost:        decimal.Zero,
		ServiceCount:       len(s.ServiceBreakdown),
		ResourceGroupCount: len(s.ResourceGroupCosts),
	}

	if k.Days > 0 {
		k.PeriodStart = s.DailyCosts[0].Day
		k.PeriodEnd = s.DailyCosts[k.Days-1].Day

		sum := decimal.Zero
		for i, d := range s.DailyCosts {
			sum = sum.Add(d.Cost)
			if i == 0 || d.Cost.GreaterThan(k.PeakDayCost) {
				k.PeakDay, k.PeakDayCost = d.Day, d.Cost
			}
		}
		k.AverageDailyCost = sum.Div(decimal.NewFromInt(int64(k.Days))).Round(4)
	}
	if len(s.ServiceBreakdown) > 0 {
		k.TopService = s.ServiceBreakdown[0].Name
	}
	if len(s.ResourceGroupCosts) > 0 {
		k.TopResourceGroup = s.ResourceGroupCosts[0].Name
	}
	return k
}
