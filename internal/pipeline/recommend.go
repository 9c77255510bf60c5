package pipeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/azcost/internal/config"
	"github.com/theirongolddev/azcost/internal/model"
)

// Recommendation rule identifiers, usable in recommendations.disabled.
const (
	RuleTopService       = "top-service"
	RuleTopResourceGroup = "top-resource-group"
	RuleCostSpike        = "cost-spike"
	RuleRisingTrend      = "rising-trend"
	RuleBudgetPace       = "budget-pace"
	RuleZeroCostRows     = "zero-cost-rows"
)

// Minimum number of days before the trend rule compares halves.
const trendMinDays = 4

// Recommend evaluates the static heuristics against a summary's
// aggregates. Results are ordered most severe first; rules of equal
// severity keep their evaluation order. budget is the optional monthly
// ceiling.
func Recommend(s model.DashboardSummary, rules config.RecommendationConfig, budget *float64) []model.Recommendation {
	recs := []model.Recommendation{}
	add := func(rule string, fn func() []model.Recommendation) {
		if rules.RuleEnabled(rule) {
			recs = append(recs, fn()...)
		}
	}

	add(RuleTopService, func() []model.Recommendation { return topService(s, rules) })
	add(RuleTopResourceGroup, func() []model.Recommendation { return topResourceGroup(s, rules) })
	add(RuleCostSpike, func() []model.Recommendation { return costSpikes(s.DailyCosts, rules) })
	add(RuleRisingTrend, func() []model.Recommendation { return risingTrend(s.DailyCosts, rules) })
	add(RuleBudgetPace, func() []model.Recommendation { return budgetPace(s, budget) })
	add(RuleZeroCostRows, func() []model.Recommendation { return zeroCostRows(s.Quality) })

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Severity.Rank() > recs[j].Severity.Rank()
	})
	return recs
}

func topService(s model.DashboardSummary, rules config.RecommendationConfig) []model.Recommendation {
	if len(s.ServiceBreakdown) == 0 {
		return nil
	}
	top := s.ServiceBreakdown[0]
	if !top.Cost.IsPositive() {
		return nil
	}

	sev := model.SeverityInfo
	if top.SharePercent/100 >= rules.ServiceShareWarn {
		sev = model.SeverityWarning
	}
	return []model.Recommendation{{
		Rule:     RuleTopService,
		Severity: sev,
		Title:    "Highest-cost service: " + top.Name,
		Detail: fmt.Sprintf("%s accounts for %.1f%% of total spend (%s). "+
			"Review sizing, reservations or savings plans for this service first.",
			top.Name, top.SharePercent, amount(top.Cost)),
		Subject: top.Name,
		Amount:  top.Cost,
	}}
}

func topResourceGroup(s model.DashboardSummary, rules config.RecommendationConfig) []model.Recommendation {
	if len(s.ResourceGroupCosts) < 2 {
		return nil
	}
	top := s.ResourceGroupCosts[0]
	if !top.Cost.IsPositive() || top.SharePercent/100 < rules.GroupShareWarn {
		return nil
	}
	return []model.Recommendation{{
		Rule:     RuleTopResourceGroup,
		Severity: model.SeverityWarning,
		Title:    "Spend concentrated in resource group " + top.Name,
		Detail: fmt.Sprintf("%s holds %.1f%% of total spend (%s). "+
			"Check it for idle or oversized resources.",
			top.Name, top.SharePercent, amount(top.Cost)),
		Subject: top.Name,
		Amount:  top.Cost,
	}}
}

// costSpikes flags days above SpikeFactor times the mean daily cost,
// highest first.
func costSpikes(days []model.DailyCost, rules config.RecommendationConfig) []model.Recommendation {
	if len(days) == 0 || len(days) < rules.SpikeMinDays || rules.MaxSpikes <= 0 {
		return nil
	}
	mean := meanCost(days)
	if !mean.IsPositive() {
		return nil
	}
	threshold := mean.Mul(decimal.NewFromFloat(rules.SpikeFactor))
	critical := threshold.Mul(decimal.NewFromInt(2))

	var spikes []model.DailyCost
	for _, d := range days {
		if d.Cost.GreaterThan(threshold) {
			spikes = append(spikes, d)
		}
	}
	sort.SliceStable(spikes, func(i, j int) bool {
		return spikes[i].Cost.GreaterThan(spikes[j].Cost)
	})
	if len(spikes) > rules.MaxSpikes {
		spikes = spikes[:rules.MaxSpikes]
	}

	recs := make([]model.Recommendation, 0, len(spikes))
	for _, d := range spikes {
		sev := model.SeverityWarning
		if d.Cost.GreaterThanOrEqual(critical) {
			sev = model.SeverityCritical
		}
		ratio := d.Cost.Div(mean).Round(1)
		recs = append(recs, model.Recommendation{
			Rule:     RuleCostSpike,
			Severity: sev,
			Title:    "Cost spike on " + d.Day,
			Detail: fmt.Sprintf("Spend on %s was %s, %sx the daily average of %s. "+
				"Look for one-off jobs, scale-outs or data transfer that day.",
				d.Day, amount(d.Cost), ratio.String(), amount(mean)),
			Subject: d.Day,
			Amount:  d.Cost,
		})
	}
	return recs
}

// risingTrend compares the mean of the later half of the period with
// the earlier half. With an odd day count the middle day is ignored.
func risingTrend(days []model.DailyCost, rules config.RecommendationConfig) []model.Recommendation {
	n := len(days)
	if n < trendMinDays {
		return nil
	}
	half := n / 2
	first := meanCost(days[:half])
	second := meanCost(days[n-half:])
	if !first.IsPositive() {
		return nil
	}

	growth := second.Sub(first).Div(first)
	if growth.LessThan(decimal.NewFromFloat(rules.TrendWarn)) {
		return nil
	}
	return []model.Recommendation{{
		Rule:     RuleRisingTrend,
		Severity: model.SeverityWarning,
		Title:    "Daily spend is rising",
		Detail: fmt.Sprintf("Average daily spend grew %s%% from %s to %s between the first and second half of %s to %s.",
			growth.Mul(hundred).Round(1).String(), amount(first), amount(second),
			days[0].Day, days[n-1].Day),
		Amount: second.Sub(first),
	}}
}

// budgetPace projects the period's average daily cost over the month the
// data ends in and compares it with the configured monthly budget. It is
// critical once that month's spend alone is over budget.
func budgetPace(s model.DashboardSummary, budget *float64) []model.Recommendation {
	if budget == nil || *budget <= 0 || len(s.DailyCosts) == 0 {
		return nil
	}
	limit := decimal.NewFromFloat(*budget)
	last := s.DailyCosts[len(s.DailyCosts)-1].Date
	daysInMonth := time.Date(last.Year(), last.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	projected := s.KPIs.AverageDailyCost.Mul(decimal.NewFromInt(int64(daysInMonth))).Round(2)

	if !projected.GreaterThan(limit) {
		return nil
	}
	sev := model.SeverityWarning
	if monthCost(s.DailyCosts, last).GreaterThan(limit) {
		sev = model.SeverityCritical
	}
	return []model.Recommendation{{
		Rule:     RuleBudgetPace,
		Severity: sev,
		Title:    "Projected spend exceeds monthly budget",
		Detail: fmt.Sprintf("At %s per day the projected monthly spend is %s against a budget of %s.",
			amount(s.KPIs.AverageDailyCost), amount(projected), amount(limit)),
		Amount: projected,
	}}
}

// monthCost sums the daily costs falling in the calendar month of ref.
func monthCost(days []model.DailyCost, ref time.Time) decimal.Decimal {
	sum := decimal.Zero
	for _, d := range days {
		if d.Date.Year() == ref.Year() && d.Date.Month() == ref.Month() {
			sum = sum.Add(d.Cost)
		}
	}
	return sum
}

func zeroCostRows(q model.DataQuality) []model.Recommendation {
	if q.MissingCost == 0 {
		return nil
	}
	return []model.Recommendation{{
		Rule:     RuleZeroCostRows,
		Severity: model.SeverityInfo,
		Title:    "Rows without a usable cost",
		Detail: fmt.Sprintf("%d row(s) had a blank or non-numeric cost and were counted as zero. "+
			"Check the export's cost column.", q.MissingCost),
		Amount: decimal.Zero,
	}}
}

func meanCost(days []model.DailyCost) decimal.Decimal {
	if len(days) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, d := range days {
		sum = sum.Add(d.Cost)
	}
	return sum.Div(decimal.NewFromInt(int64(len(days))))
}

func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
