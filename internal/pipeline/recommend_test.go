package pipeline

import (
	"fmt"
	"testing"

	"github.com/theirongolddev/azcost/internal/config"
	"github.com/theirongolddev/azcost/internal/model"
)

func findRule(recs []model.Recommendation, rule string) []model.Recommendation {
	var out []model.Recommendation
	for _, r := range recs {
		if r.Rule == rule {
			out = append(out, r)
		}
	}
	return out
}

// flatDays returns n consecutive January days costing cost each.
func flatDays(t *testing.T, n int, cost string) []model.UsageRecord {
	t.Helper()
	records := make([]model.UsageRecord, n)
	for i := range records {
		records[i] = rec(t, fmt.Sprintf("2024-01-%02d", i+1), "VM", "rg-a", cost)
	}
	return records
}

func TestRecommend_TopServiceSeverity(t *testing.T) {
	s := Summarize([]model.UsageRecord{
		rec(t, "2024-01-01", "VM", "rg", "80"),
		rec(t, "2024-01-01", "Storage", "rg", "20"),
	})
	recs := findRule(Recommend(s, config.DefaultRecommendations(), nil), RuleTopService)
	if len(recs) != 1 {
		t.Fatalf("top-service recs = %d, want 1", len(recs))
	}
	if recs[0].Subject != "VM" || recs[0].Severity != model.SeverityWarning {
		t.Errorf("rec = %+v, want VM warning", recs[0])
	}

	rules := config.DefaultRecommendations()
	rules.ServiceShareWarn = 0.9
	recs = findRule(Recommend(s, rules, nil), RuleTopService)
	if recs[0].Severity != model.SeverityInfo {
		t.Errorf("severity = %s, want info below threshold", recs[0].Severity)
	}

	single := Summarize([]model.UsageRecord{rec(t, "2024-01-01", "VM", "rg", "50")})
	recs = findRule(Recommend(single, config.DefaultRecommendations(), nil), RuleTopService)
	if len(recs) != 1 || recs[0].Severity != model.SeverityWarning {
		t.Errorf("single service recs = %+v, want one warning at 100%% share", recs)
	}
}

func TestRecommend_TopResourceGroup(t *testing.T) {
	s := Summarize([]model.UsageRecord{
		rec(t, "2024-01-01", "VM", "rg-big", "90"),
		rec(t, "2024-01-01", "VM", "rg-small", "10"),
	})
	recs := findRule(Recommend(s, config.DefaultRecommendations(), nil), RuleTopResourceGroup)
	if len(recs) != 1 || recs[0].Subject != "rg-big" {
		t.Fatalf("recs = %+v, want rg-big", recs)
	}

	single := Summarize([]model.UsageRecord{rec(t, "2024-01-01", "VM", "rg-only", "90")})
	if got := findRule(Recommend(single, config.DefaultRecommendations(), nil), RuleTopResourceGroup); len(got) != 0 {
		t.Errorf("single group should not be flagged: %+v", got)
	}
}

func TestRecommend_CostSpike(t *testing.T) {
	records := flatDays(t, 6, "10")
	records = append(records,
		rec(t, "2024-01-07", "VM", "rg-a", "40"),
		rec(t, "2024-01-08", "VM", "rg-a", "100"),
	)
	s := Summarize(records)
	// mean = 200/8 = 25, threshold = 37.5, critical = 75
	recs := findRule(Recommend(s, config.DefaultRecommendations(), nil), RuleCostSpike)
	if len(recs) != 2 {
		t.Fatalf("spikes = %d, want 2", len(recs))
	}

	bySubject := map[string]model.Severity{}
	for _, r := range recs {
		bySubject[r.Subject] = r.Severity
	}
	if bySubject["2024-01-08"] != model.SeverityCritical {
		t.Errorf("2024-01-08 severity = %s, want critical", bySubject["2024-01-08"])
	}
	if bySubject["2024-01-07"] != model.SeverityWarning {
		t.Errorf("2024-01-07 severity = %s, want warning", bySubject["2024-01-07"])
	}
}

func TestRecommend_CostSpikeNeedsMinDays(t *testing.T) {
	s := Summarize([]model.UsageRecord{
		rec(t, "2024-01-01", "VM", "rg", "1"),
		rec(t, "2024-01-02", "VM", "rg", "100"),
	})
	if got := findRule(Recommend(s, config.DefaultRecommendations(), nil), RuleCostSpike); len(got) != 0 {
		t.Errorf("spikes with 2 days = %d, want 0", len(got))
	}
}

func TestRecommend_CostSpikeCapped(t *testing.T) {
	records := flatDays(t, 20, "1")
	for i := 21; i <= 28; i++ {
		records = append(records, rec(t, fmt.Sprintf("2024-01-%02d", i), "VM", "rg-a", "50"))
	}
	rules := config.DefaultRecommendations()
	rules.MaxSpikes = 3
	got := findRule(Recommend(Summarize(records), rules, nil), RuleCostSpike)
	if len(got) != 3 {
		t.Errorf("spikes = %d, want capped at 3", len(got))
	}
}

func TestRecommend_RisingTrend(t *testing.T) {
	s := Summarize([]model.UsageRecord{
		rec(t, "2024-01-01", "VM", "rg", "10"),
		rec(t, "2024-01-02", "VM", "rg", "10"),
		rec(t, "2024-01-03", "VM", "rg", "15"),
		rec(t, "2024-01-04", "VM", "rg", "15"),
	})
	recs := findRule(Recommend(s, config.DefaultRecommendations(), nil), RuleRisingTrend)
	if len(recs) != 1 {
		t.Fatalf("rising-trend recs = %d, want 1", len(recs))
	}
	assertDecimal(t, "Amount", recs[0].Amount, "5")

	flat := Summarize(flatDays(t, 6, "10"))
	if got := findRule(Recommend(flat, config.DefaultRecommendations(), nil), RuleRisingTrend); len(got) != 0 {
		t.Errorf("flat spend flagged as rising: %+v", got)
	}
}

func TestRecommend_BudgetPace(t *testing.T) {
	s := Summarize(flatDays(t, 10, "100"))
	budget := 2000.0
	recs := findRule(Recommend(s, config.DefaultRecommendations(), &budget), RuleBudgetPace)
	if len(recs) != 1 {
		t.Fatalf("budget recs = %d, want 1", len(recs))
	}
	// 100/day over January's 31 days
	assertDecimal(t, "projected", recs[0].Amount, "3100")
	if recs[0].Severity != model.SeverityWarning {
		t.Errorf("severity = %s, want warning while total is under budget", recs[0].Severity)
	}

	generous := 5000.0
	if got := findRule(Recommend(s, config.DefaultRecommendations(), &generous), RuleBudgetPace); len(got) != 0 {
		t.Errorf("under-budget flagged: %+v", got)
	}
}

func TestRecommend_BudgetPaceCriticalUsesLastMonth(t *testing.T) {
	records := []model.UsageRecord{
		rec(t, "2024-01-15", "VM", "rg", "990"),
		rec(t, "2024-02-15", "VM", "rg", "990"),
		rec(t, "2024-03-15", "VM", "rg", "990"),
	}
	budget := 1000.0
	recs := findRule(Recommend(Summarize(records), config.DefaultRecommendations(), &budget), RuleBudgetPace)
	if len(recs) != 1 {
		t.Fatalf("budget recs = %d, want 1", len(recs))
	}
	if recs[0].Severity != model.SeverityWarning {
		t.Errorf("severity = %s, want warning when each month is under budget", recs[0].Severity)
	}

	records = append(records, rec(t, "2024-03-16", "VM", "rg", "20"))
	recs = findRule(Recommend(Summarize(records), config.DefaultRecommendations(), &budget), RuleBudgetPace)
	if len(recs) != 1 || recs[0].Severity != model.SeverityCritical {
		t.Errorf("recs = %+v, want critical once March passes the budget", recs)
	}
}

func TestRecommend_ZeroCostRows(t *testing.T) {
	s := Summarize([]model.UsageRecord{
		rec(t, "2024-01-01", "VM", "rg", "1"),
		rec(t, "2024-01-01", "VM", "rg", ""),
	})
	recs := findRule(Recommend(s, config.DefaultRecommendations(), nil), RuleZeroCostRows)
	if len(recs) != 1 || recs[0].Severity != model.SeverityInfo {
		t.Errorf("zero-cost recs = %+v", recs)
	}
}

func TestRecommend_DisabledRules(t *testing.T) {
	s := Summarize([]model.UsageRecord{
		rec(t, "2024-01-01", "VM", "rg", "80"),
		rec(t, "2024-01-01", "Storage", "rg", "20"),
	})
	rules := config.DefaultRecommendations()
	rules.Disabled = []string{RuleTopService}
	if got := findRule(Recommend(s, rules, nil), RuleTopService); len(got) != 0 {
		t.Errorf("disabled rule still fired: %+v", got)
	}
}

func TestRecommend_OrderedBySeverity(t *testing.T) {
	records := flatDays(t, 6, "10")
	records = append(records, rec(t, "2024-01-07", "VM", "rg-a", "200"), rec(t, "2024-01-07", "VM", "rg-a", ""))
	recs := Recommend(Summarize(records), config.DefaultRecommendations(), nil)
	for i := 1; i < len(recs); i++ {
		if recs[i-1].Severity.Rank() < recs[i].Severity.Rank() {
			t.Fatalf("rec %d (%s) ranked above %d (%s)", i-1, recs[i-1].Severity, i, recs[i].Severity)
		}
	}
}

func TestRecommend_Empty(t *testing.T) {
	budget := 100.0
	recs := Recommend(Summarize(nil), config.DefaultRecommendations(), &budget)
	if len(recs) != 0 {
		t.Errorf("recs for empty summary = %+v", recs)
	}
}
