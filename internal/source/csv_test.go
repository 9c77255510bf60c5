package source

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf16"
)

func parseString(t *testing.T, doc string) Dataset {
	t.Helper()
	ds, err := Parse(strings.NewReader(doc), ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return ds
}

func TestParse_AzureCostExport(t *testing.T) {
	ds := parseString(t, "UsageDate,ServiceName,ResourceGroupName,PreTaxCost,Location\n"+
		"2024-01-01,Virtual Machines,rg-prod,10.50,eastus\n"+
		"01/02/2024,Storage,rg-data,\"1,234.25\",westus\n")

	if len(ds.Records) != 2 {
		t.Fatalf("Records = %d, want 2", len(ds.Records))
	}
	for _, r := range Roles {
		if !ds.Columns.Has(r) {
			t.Errorf("column for %s not matched", r)
		}
	}
	if got := ds.Columns.Header(RoleCost); got != "PreTaxCost" {
		t.Errorf("cost header = %q, want PreTaxCost", got)
	}

	first := ds.Records[0]
	if first.Row != 1 {
		t.Errorf("Row = %d, want 1", first.Row)
	}
	if first.Service != "Virtual Machines" || first.ResourceGroup != "rg-prod" {
		t.Errorf("first = %+v", first)
	}
	if !first.HasCost || first.Cost.String() != "10.5" {
		t.Errorf("first cost = %s (has=%v), want 10.5", first.Cost, first.HasCost)
	}
	if first.Extra["Location"] != "eastus" {
		t.Errorf("Extra[Location] = %q, want eastus", first.Extra["Location"])
	}

	second := ds.Records[1]
	if second.Day() != "2024-01-02" {
		t.Errorf("second day = %q, want 2024-01-02", second.Day())
	}
	if second.Cost.String() != "1234.25" {
		t.Errorf("second cost = %s, want 1234.25", second.Cost)
	}
}

func TestParse_MissingAndMalformedCost(t *testing.T) {
	ds := parseString(t, "Date,Service,Cost\n"+
		"2024-01-01,VM,\n"+
		"2024-01-01,VM,n/a\n"+
		"2024-01-01,VM,3\n"+
		"2024-01-01,VM,1e-99999999\n"+
		"2024-01-01,VM,\"1.234,56\"\n")

	if len(ds.Records) != 5 {
		t.Fatalf("Records = %d, want 5", len(ds.Records))
	}
	for _, i := range []int{0, 1, 3, 4} {
		if ds.Records[i].HasCost {
			t.Errorf("record %d: blank, non-numeric or out-of-range cost marked present", i)
		}
	}
	if !ds.Records[2].HasCost {
		t.Error("numeric cost should be present")
	}
}

func TestParse_BlankRowsSkipped(t *testing.T) {
	ds := parseString(t, "Date,Cost\n2024-01-01,1\n,\n\n2024-01-02,2\n")
	if len(ds.Records) != 2 {
		t.Errorf("Records = %d, want 2", len(ds.Records))
	}
	if ds.SkippedRows != 1 {
		t.Errorf("SkippedRows = %d, want 1", ds.SkippedRows)
	}
}

func TestParse_HeaderOnly(t *testing.T) {
	ds := parseString(t, "Date,ServiceName,Cost\n")
	if len(ds.Records) != 0 {
		t.Errorf("Records = %d, want 0", len(ds.Records))
	}
	if !ds.Columns.Has(RoleCost) {
		t.Error("cost column should still be matched")
	}
}

func TestParse_EmptyInput(t *testing.T) {
	_, err := Parse(strings.NewReader(""), ParseOptions{})
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
	if !errors.Is(err, ErrEmptyFile) {
		t.Errorf("err = %v, want ErrEmptyFile", err)
	}
}

func TestParse_BlankHeader(t *testing.T) {
	_, err := Parse(strings.NewReader(" , ,\n1,2,3\n"), ParseOptions{})
	if !errors.Is(err, ErrNoHeader) {
		t.Errorf("err = %v, want ErrNoHeader", err)
	}
}

func TestParse_UTF8BOM(t *testing.T) {
	ds := parseString(t, "\ufeffDate,Cost\n2024-03-01,4\n")
	if ds.Headers[0] != "Date" {
		t.Errorf("header[0] = %q, want Date", ds.Headers[0])
	}
	if !ds.Columns.Has(RoleDate) {
		t.Error("date column not matched behind BOM")
	}
}

func TestParse_UTF16LE(t *testing.T) {
	doc := "Date,Cost\r\n2024-03-01,4.5\r\n"
	units := utf16.Encode([]rune(doc))
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFE})
	for _, u := range units {
		buf.WriteByte(byte(u))
		buf.WriteByte(byte(u >> 8))
	}

	ds, err := Parse(&buf, ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(ds.Records) != 1 || ds.Records[0].Cost.String() != "4.5" {
		t.Fatalf("records = %+v", ds.Records)
	}
}

func TestParse_Profiles(t *testing.T) {
	ds := parseString(t, "Date,Cost,Tag,Flag\n2024-01-01,1,a,true\n2024-01-02,2,b,false\n")
	want := map[string]Kind{"Date": KindDate, "Cost": KindNumber, "Tag": KindString, "Flag": KindBool}
	for _, p := range ds.Profiles {
		if p.Kind != want[p.Header] {
			t.Errorf("%s kind = %s, want %s", p.Header, p.Kind, want[p.Header])
		}
	}
}

func TestParse_Progress(t *testing.T) {
	var calls int
	var last int64
	_, err := Parse(strings.NewReader("Date,Cost\n2024-01-01,1\n"), ParseOptions{
		Progress: func(current, total int64) {
			calls++
			last = current
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls == 0 {
		t.Fatal("progress never reported")
	}
	if last == 0 {
		t.Error("final progress should report bytes read")
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "costs.csv")
	if err := os.WriteFile(path, []byte("Date,Cost\n2024-01-01,7\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ds, err := ReadFile(path, ParseOptions{})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if ds.Name != "costs.csv" {
		t.Errorf("Name = %q, want costs.csv", ds.Name)
	}
	if ds.Bytes != int64(len("Date,Cost\n2024-01-01,7\n")) {
		t.Errorf("Bytes = %d", ds.Bytes)
	}
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"), ParseOptions{})
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want wrapped ErrNotExist", err)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-01-05", "2024-01-05"},
		{"2024-01-05T23:30:00-08:00", "2024-01-05"},
		{"2024-01-05T00:00:00.0000000Z", "2024-01-05"},
		{"01/05/2024", "2024-01-05"},
		{"1/5/2024", "2024-01-05"},
		{"25/12/2024", "2024-12-25"},
		{"2024/12/25", "2024-12-25"},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		if !ok {
			t.Errorf("ParseDate(%q) failed", tt.in)
			continue
		}
		if got.Format("2006-01-02") != tt.want {
			t.Errorf("ParseDate(%q) = %s, want %s", tt.in, got.Format("2006-01-02"), tt.want)
		}
		if got.Location() != time.UTC {
			t.Errorf("ParseDate(%q) location = %v, want UTC", tt.in, got.Location())
		}
	}

	if _, ok := ParseDate("yesterday"); ok {
		t.Error("ParseDate(yesterday) should fail")
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"12", "12", true},
		{" 3.50 ", "3.5", true},
		{"$1,234.56", "1234.56", true},
		{"(4.20)", "-4.2", true},
		{"-0.01", "-0.01", true},
		{"USD 9.99", "9.99", true},
		{"9.99 EUR", "9.99", true},
		{"1.5e2", "150", true},
		{"", "0", false},
		{"n/a", "0", false},
		{"2024-01-01", "0", false},
		{"$", "0", false},
		{"1e-99999999", "0", false},
		{"1e999999999", "0", false},
		{"1e-28", "0.0000000000000000000000000001", true},
		{"123456789012345678901234567890123456789", "0", false},
		{"12,345,678.90", "12345678.9", true},
		{"1.234,56", "0", false},
		{"1,23", "0", false},
		{"1,2345", "0", false},
		{",123", "0", false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseNumber(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got.String() != tt.want {
			t.Errorf("ParseNumber(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestInferValue(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"", KindNull},
		{"TRUE", KindBool},
		{"false", KindBool},
		{"42", KindNumber},
		{"2024-01-01", KindDate},
		{"Virtual Machines", KindString},
	}
	for _, tt := range tests {
		if got := InferValue(tt.in).Kind; got != tt.want {
			t.Errorf("InferValue(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
