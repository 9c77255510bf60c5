package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/theirongolddev/azcost/internal/model"
)

func sampleSummary() model.DashboardSummary {
	return model.DashboardSummary{
		TotalCost: decimal.RequireFromString("35"),
		DailyCosts: []model.DailyCost{
			{Day: "2024-01-01", Cost: decimal.RequireFromString("15"), Records: 2},
			{Day: "2024-01-02", Cost: decimal.RequireFromString("20"), Records: 1},
		},
		ServiceBreakdown: []model.CostShare{
			{Name: "VM", Cost: decimal.RequireFromString("30"), Records: 2, SharePercent: 85.71},
			{Name: "Storage", Cost: decimal.RequireFromString("5"), Records: 1, SharePercent: 14.29},
		},
		ResourceGroupCosts: []model.CostShare{
			{Name: "rg-a", Cost: decimal.RequireFromString("35"), Records: 3, SharePercent: 100},
		},
		Recommendations: []model.Recommendation{{
			Rule:     "top-service",
			Severity: model.SeverityWarning,
			Title:    "Highest-cost service: VM",
			Detail:   "VM accounts for 85.7% of total spend.",
			Subject:  "VM",
			Amount:   decimal.RequireFromString("30"),
		}},
		KPIs: model.KPIs{
			RecordCount: 3, Days: 2,
			PeriodStart: "2024-01-01", PeriodEnd: "2024-01-02",
			AverageDailyCost: decimal.RequireFromString("17.5"),
			PeakDay:          "2024-01-02", PeakDayCost: decimal.RequireFromString("20"),
		},
		Source:      model.SourceInfo{Name: "costs.csv"},
		GeneratedAt: time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestParseFormat(t *testing.T) {
	for _, in := range []string{"csv", "JSON", " yaml ", "yml", "pdf"} {
		_, err := ParseFormat(in)
		assert.NoError(t, err, in)
	}
	f, _ := ParseFormat("yml")
	assert.Equal(t, FormatYAML, f)

	_, err := ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestWrite_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, sampleSummary()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, []string{"section", "name", "cost", "share_percent", "records", "detail"}, rows[0])

	sections := map[string]int{}
	for _, r := range rows[1:] {
		sections[r[0]]++
	}
	assert.Equal(t, 2, sections["daily"])
	assert.Equal(t, 2, sections["service"])
	assert.Equal(t, 1, sections["resource_group"])
	assert.Equal(t, 1, sections["recommendation"])
	assert.Equal(t, []string{"summary", "total_cost", "35", "", "3", ""}, rows[1])
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sampleSummary()))

	var decoded struct {
		TotalCost  string `json:"total_cost"`
		DailyCosts []struct {
			Date string `json:"date"`
			Cost string `json:"cost"`
		} `json:"daily_costs"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "35", decoded.TotalCost)
	require.Len(t, decoded.DailyCosts, 2)
	assert.Equal(t, "2024-01-01", decoded.DailyCosts[0].Date)
}

func TestWrite_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatYAML, sampleSummary()))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "service_breakdown")
	assert.Contains(t, buf.String(), "total_cost: \"35\"")
}

func TestWrite_PDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatPDF, sampleSummary()))
	assert.True(t, strings.HasPrefix(buf.String(), "%PDF-"), "missing PDF header")
}

func TestWrite_PDFEmptySummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatPDF, model.DashboardSummary{}))
	assert.True(t, strings.HasPrefix(buf.String(), "%PDF-"))
}

func TestToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	path, err := ToFile(sampleSummary(), FormatJSON, dir, "january")
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "january_"))
	assert.Equal(t, ".json", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\"total_cost\": \"35\"")
}

func TestGenerateFilename(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	got, err := generateFilename("", dir, "csv", now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "azcost_report_20240304_050607.csv"), got)
}
