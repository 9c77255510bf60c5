package pipeline

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/azcost/internal/model"
	"github.com/theirongolddev/azcost/internal/source"
)

var costHeaders = []string{"Date", "ServiceName", "ResourceGroup", "Cost"}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func rec(t *testing.T, date, service, group, cost string) model.UsageRecord {
	t.Helper()
	r := model.UsageRecord{Service: service, ResourceGroup: group}
	if date != "" {
		r.Date = day(t, date)
	}
	if cost != "" {
		r.Cost = decimal.RequireFromString(cost)
		r.HasCost = true
	}
	return r
}

func dataset(records ...model.UsageRecord) source.Dataset {
	return source.Dataset{
		Headers: costHeaders,
		Columns: source.MatchColumns(costHeaders, nil),
		Records: records,
	}
}

func mustProcess(t *testing.T, ds source.Dataset) model.DashboardSummary {
	t.Helper()
	s, err := Process(ds, DefaultOptions())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	return s
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}

func sumDaily(days []model.DailyCost) decimal.Decimal {
	sum := decimal.Zero
	for _, d := range days {
		sum = sum.Add(d.Cost)
	}
	return sum
}

func sumShares(rows []model.CostShare) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(r.Cost)
	}
	return sum
}

func TestProcess_WorkedExample(t *testing.T) {
	s := mustProcess(t, dataset(
		rec(t, "2024-01-01", "VM", "rg-a", "10"),
		rec(t, "2024-01-01", "Storage", "rg-a", "5"),
		rec(t, "2024-01-02", "VM", "rg-b", "20"),
	))

	assertDecimal(t, "TotalCost", s.TotalCost, "35")

	daily := s.DailyMap()
	if len(daily) != 2 {
		t.Fatalf("daily = %v, want 2 days", daily)
	}
	assertDecimal(t, "daily[2024-01-01]", daily["2024-01-01"], "15")
	assertDecimal(t, "daily[2024-01-02]", daily["2024-01-02"], "20")

	services := s.ServiceMap()
	if len(services) != 2 {
		t.Fatalf("services = %v, want 2", services)
	}
	assertDecimal(t, "service[VM]", services["VM"], "30")
	assertDecimal(t, "service[Storage]", services["Storage"], "5")

	if s.ServiceBreakdown[0].Name != "VM" {
		t.Errorf("top service = %q, want VM", s.ServiceBreakdown[0].Name)
	}
	if s.KPIs.TopService != "VM" {
		t.Errorf("KPIs.TopService = %q, want VM", s.KPIs.TopService)
	}
	if s.KPIs.Days != 2 || s.KPIs.PeriodStart != "2024-01-01" || s.KPIs.PeriodEnd != "2024-01-02" {
		t.Errorf("KPIs period = %+v", s.KPIs)
	}
	assertDecimal(t, "AverageDailyCost", s.KPIs.AverageDailyCost, "17.5")
	if s.KPIs.PeakDay != "2024-01-02" {
		t.Errorf("PeakDay = %q, want 2024-01-02", s.KPIs.PeakDay)
	}
}

func TestProcess_Reconciles(t *testing.T) {
	s := mustProcess(t, dataset(
		rec(t, "2024-02-03", "VM", "rg-a", "0.10"),
		rec(t, "2024-02-01", "SQL", "rg-b", "0.20"),
		rec(t, "2024-02-02", "VM", "rg-c", "1234.5678"),
		rec(t, "2024-02-01", "Storage", "rg-a", "0.0001"),
		rec(t, "2024-02-03", "SQL", "rg-b", "-3.3"),
	))

	assertDecimal(t, "TotalCost", s.TotalCost, "1231.5679")
	assertDecimal(t, "sum(daily)", sumDaily(s.DailyCosts), s.TotalCost.String())
	assertDecimal(t, "sum(service)", sumShares(s.ServiceBreakdown), s.TotalCost.String())
	assertDecimal(t, "sum(groups)", sumShares(s.ResourceGroupCosts), s.TotalCost.String())
}

func TestProcess_DailySortedAscending(t *testing.T) {
	s := mustProcess(t, dataset(
		rec(t, "2024-03-10", "VM", "rg", "1"),
		rec(t, "2024-01-05", "VM", "rg", "1"),
		rec(t, "2024-02-20", "VM", "rg", "1"),
		rec(t, "2023-12-31", "VM", "rg", "1"),
	))

	for i := 1; i < len(s.DailyCosts); i++ {
		if s.DailyCosts[i-1].Day >= s.DailyCosts[i].Day {
			t.Fatalf("daily not ascending at %d: %s >= %s", i, s.DailyCosts[i-1].Day, s.DailyCosts[i].Day)
		}
	}
	if s.DailyCosts[0].Day != "2023-12-31" {
		t.Errorf("first day = %s, want 2023-12-31", s.DailyCosts[0].Day)
	}
}

func TestProcess_Empty(t *testing.T) {
	s := mustProcess(t, source.Dataset{})

	if !s.TotalCost.IsZero() {
		t.Errorf("TotalCost = %s, want 0", s.TotalCost)
	}
	if len(s.DailyCosts) != 0 || len(s.ServiceBreakdown) != 0 || len(s.ResourceGroupCosts) != 0 {
		t.Errorf("expected empty breakdowns, got %+v", s)
	}
	if len(s.Recommendations) != 0 {
		t.Errorf("Recommendations = %v, want none", s.Recommendations)
	}
	if !s.IsEmpty() {
		t.Error("IsEmpty() = false")
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"daily_costs", "service_breakdown", "resource_group_costs", "recommendations"} {
		if _, isSlice := decoded[key].([]any); !isSlice {
			t.Errorf("%s encodes as %v, want []", key, decoded[key])
		}
	}
}

func TestProcess_MissingCostContributesZero(t *testing.T) {
	s := mustProcess(t, dataset(
		rec(t, "2024-01-01", "VM", "rg-a", "10"),
		rec(t, "2024-01-01", "VM", "rg-a", ""),
		rec(t, "2024-01-02", "Backup", "rg-b", ""),
	))

	assertDecimal(t, "TotalCost", s.TotalCost, "10")
	if s.Quality.MissingCost != 2 {
		t.Errorf("MissingCost = %d, want 2", s.Quality.MissingCost)
	}

	services := s.ServiceMap()
	assertDecimal(t, "service[VM]", services["VM"], "10")
	assertDecimal(t, "service[Backup]", services["Backup"], "0")
	assertDecimal(t, "daily[2024-01-02]", s.DailyMap()["2024-01-02"], "0")
	if s.KPIs.RecordCount != 3 {
		t.Errorf("RecordCount = %d, want 3", s.KPIs.RecordCount)
	}
}

func TestProcess_OutOfRangeCostsCountAsMissing(t *testing.T) {
	doc := "Date,ServiceName,ResourceGroup,Cost\n" +
		"2024-01-01,VM,rg-a,10\n" +
		"2024-01-01,VM,rg-a,1e-99999999\n" +
		"2024-01-02,VM,rg-a,1e999999999\n" +
		"2024-01-02,VM,rg-a,\"1.234,56\"\n"

	done := make(chan struct{})
	var (
		res *LoadResult
		err error
	)
	go func() {
		defer close(done)
		res, err = LoadReader(strings.NewReader(doc), "costs.csv", source.ParseOptions{}, DefaultOptions(), nil)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("LoadReader did not finish")
	}
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}

	s := res.Summary
	assertDecimal(t, "TotalCost", s.TotalCost, "10")
	if s.Quality.MissingCost != 3 {
		t.Errorf("MissingCost = %d, want 3", s.Quality.MissingCost)
	}
	assertDecimal(t, "daily[2024-01-02]", s.DailyMap()["2024-01-02"], "0")
}

func TestProcess_MissingGroupingFieldsAreUnattributed(t *testing.T) {
	s := mustProcess(t, dataset(
		rec(t, "2024-01-01", "VM", "rg-a", "10"),
		rec(t, "", "VM", "", "4"),
		rec(t, "2024-01-01", "", "rg-a", "6"),
	))

	assertDecimal(t, "TotalCost", s.TotalCost, "20")
	assertDecimal(t, "Unattributed.Daily", s.Unattributed.Daily, "4")
	assertDecimal(t, "Unattributed.Service", s.Unattributed.Service, "6")
	assertDecimal(t, "Unattributed.ResourceGroup", s.Unattributed.ResourceGroup, "4")

	assertDecimal(t, "daily+unattributed", sumDaily(s.DailyCosts).Add(s.Unattributed.Daily), "20")
	assertDecimal(t, "service+unattributed", sumShares(s.ServiceBreakdown).Add(s.Unattributed.Service), "20")
	assertDecimal(t, "groups+unattributed", sumShares(s.ResourceGroupCosts).Add(s.Unattributed.ResourceGroup), "20")

	if s.Quality.MissingDate != 1 || s.Quality.MissingService != 1 || s.Quality.MissingResourceGroup != 1 {
		t.Errorf("Quality = %+v", s.Quality)
	}
}

func TestProcess_Deterministic(t *testing.T) {
	ds := dataset(
		rec(t, "2024-01-01", "B", "rg-1", "5"),
		rec(t, "2024-01-01", "A", "rg-2", "5"),
		rec(t, "2024-01-02", "C", "rg-1", "5"),
		rec(t, "2024-01-03", "A", "rg-3", "50"),
	)

	first, err := json.Marshal(mustProcess(t, ds))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := json.Marshal(mustProcess(t, ds))
		if err != nil {
			t.Fatal(err)
		}
		if string(again) != string(first) {
			t.Fatalf("run %d differs:\n%s\n%s", i, first, again)
		}
	}
}

func TestProcess_TiesBrokenByName(t *testing.T) {
	s := mustProcess(t, dataset(
		rec(t, "2024-01-01", "Zeta", "rg", "5"),
		rec(t, "2024-01-01", "Alpha", "rg", "5"),
		rec(t, "2024-01-01", "Mid", "rg", "7"),
	))

	want := []string{"Mid", "Alpha", "Zeta"}
	for i, name := range want {
		if s.ServiceBreakdown[i].Name != name {
			t.Errorf("service[%d] = %q, want %q", i, s.ServiceBreakdown[i].Name, name)
		}
	}
}

func TestProcess_SharePercent(t *testing.T) {
	s := mustProcess(t, dataset(
		rec(t, "2024-01-01", "VM", "rg", "75"),
		rec(t, "2024-01-01", "Storage", "rg", "25"),
	))
	if got := s.ServiceBreakdown[0].SharePercent; got != 75 {
		t.Errorf("VM share = %v, want 75", got)
	}
	if got := s.ServiceBreakdown[1].SharePercent; got != 25 {
		t.Errorf("Storage share = %v, want 25", got)
	}
}

func TestProcess_NoCostColumn(t *testing.T) {
	headers := []string{"Date", "ServiceName", "Notes"}
	ds := source.Dataset{
		Headers: headers,
		Columns: source.MatchColumns(headers, nil),
		Records: []model.UsageRecord{rec(t, "2024-01-01", "VM", "", "")},
	}

	_, err := Process(ds, DefaultOptions())
	if !errors.Is(err, ErrNoCostColumn) {
		t.Fatalf("err = %v, want ErrNoCostColumn", err)
	}
	if IsParseError(err) {
		t.Error("processing error classified as parse error")
	}
}

func TestProcess_NoCostColumnButNoRows(t *testing.T) {
	headers := []string{"Date", "Notes"}
	ds := source.Dataset{Headers: headers, Columns: source.MatchColumns(headers, nil)}
	if _, err := Process(ds, DefaultOptions()); err != nil {
		t.Errorf("empty dataset should not fail: %v", err)
	}
}

func TestProcess_AppliesFilters(t *testing.T) {
	ds := dataset(
		rec(t, "2024-01-01", "Virtual Machines", "rg-prod", "10"),
		rec(t, "2024-01-02", "Storage", "rg-prod", "5"),
		rec(t, "2024-01-03", "Virtual Machines", "rg-dev", "20"),
	)
	opts := DefaultOptions()
	opts.Service = "virtual"
	opts.Until = day(t, "2024-01-03")

	s, err := Process(ds, opts)
	if err != nil {
		t.Fatal(err)
	}
	assertDecimal(t, "TotalCost", s.TotalCost, "10")
	if s.KPIs.RecordCount != 1 {
		t.Errorf("RecordCount = %d, want 1", s.KPIs.RecordCount)
	}
}
