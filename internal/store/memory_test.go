package store

import (
	"context"
	"strings"
	"testing"

	"github.com/theirongolddev/azcost/internal/source"
)

func loadCSV(t *testing.T, doc string) *Memory {
	t.Helper()
	ds, err := source.Parse(strings.NewReader(doc), source.ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	m, err := Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	if err := m.Load(context.Background(), ds); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return m
}

const sampleCSV = "Date,ServiceName,ResourceGroup,Cost,Location,Quantity\n" +
	"2024-01-01,VM,rg-a,10,eastus,2\n" +
	"2024-01-01,Storage,rg-a,5,westus,100\n" +
	"2024-01-02,VM,rg-b,20,eastus,3\n" +
	"2024-01-02,,rg-b,,eastus,1\n"

func TestLoadAndCount(t *testing.T) {
	m := loadCSV(t, sampleCSV)
	n, err := m.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("Count = %d, want 4", n)
	}
}

func TestQuery_ServiceView(t *testing.T) {
	m := loadCSV(t, sampleCSV)
	res, err := m.Query(context.Background(), "SELECT service, cost FROM service_costs")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(res.Columns) != 2 || res.Columns[0] != "service" {
		t.Errorf("Columns = %v", res.Columns)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("Rows = %v, want 2", res.Rows)
	}
	if res.Rows[0][0] != "VM" || res.Rows[0][1] != "30" {
		t.Errorf("first row = %v, want [VM 30]", res.Rows[0])
	}
}

func TestQuery_DailyView(t *testing.T) {
	m := loadCSV(t, sampleCSV)
	res, err := m.Query(context.Background(), "SELECT date, cost FROM daily_costs")
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"2024-01-01", "15"}, {"2024-01-02", "20"}}
	if len(res.Rows) != len(want) {
		t.Fatalf("Rows = %v", res.Rows)
	}
	for i := range want {
		if res.Rows[i][0] != want[i][0] || res.Rows[i][1] != want[i][1] {
			t.Errorf("row %d = %v, want %v", i, res.Rows[i], want[i])
		}
	}
}

func TestQuery_NullsAndExtras(t *testing.T) {
	m := loadCSV(t, sampleCSV)
	ctx := context.Background()

	res, err := m.Query(ctx, "SELECT service, cost_text FROM usage_records WHERE row_num = ?", 4)
	if err != nil {
		t.Fatal(err)
	}
	if res.Rows[0][0] != "NULL" || res.Rows[0][1] != "NULL" {
		t.Errorf("row 4 = %v, want NULLs", res.Rows[0])
	}

	res, err = m.Query(ctx, `SELECT SUM(number) FROM usage_extra WHERE column_name = 'Quantity' AND kind = 'number'`)
	if err != nil {
		t.Fatal(err)
	}
	if res.Rows[0][0] != "106" {
		t.Errorf("SUM(Quantity) = %s, want 106", res.Rows[0][0])
	}
}

func TestQuery_SyntaxError(t *testing.T) {
	m := loadCSV(t, sampleCSV)
	if _, err := m.Query(context.Background(), "SELEC nonsense"); err == nil {
		t.Error("expected error for invalid SQL")
	}
}

func TestOpen_Isolated(t *testing.T) {
	a := loadCSV(t, sampleCSV)
	b, err := Open()
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	na, _ := a.Count(context.Background())
	nb, _ := b.Count(context.Background())
	if na != 4 || nb != 0 {
		t.Errorf("counts = %d, %d, want 4, 0", na, nb)
	}
}
