package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/theirongolddev/azcost/internal/model"
)

// Rows sampled per column when building type profiles.
const profileSample = 200

// Progress is reported at most once per this many data rows.
const progressEvery = 500

// ReadFile opens and parses a CSV export from disk.
func ReadFile(path string, opts ParseOptions) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, &ParseError{Err: fmt.Errorf("opening %s: %w", path, err)}
	}
	defer func() { _ = f.Close() }()

	if info, statErr := f.Stat(); statErr == nil {
		if info.IsDir() {
			return Dataset{}, &ParseError{Err: fmt.Errorf("%s is a directory", path)}
		}
		if opts.TotalBytes == 0 {
			opts.TotalBytes = info.Size()
		}
	}

	ds, err := Parse(f, opts)
	if err != nil {
		return Dataset{}, err
	}
	ds.Name = filepath.Base(path)
	return ds, nil
}

// Parse reads a CSV document with a header row. UTF-8 and UTF-16 input
// is accepted when it starts with a byte order mark; anything else is
// decoded as UTF-8.
func Parse(r io.Reader, opts ParseOptions) (Dataset, error) {
	counter := &countingReader{r: r}
	decoded := transform.NewReader(counter, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Dataset{}, &ParseError{Err: ErrEmptyFile}
	}
	if err != nil {
		return Dataset{}, wrapCSVError(err)
	}

	headers, ok := cleanHeaders(header)
	if !ok {
		return Dataset{}, &ParseError{Line: 1, Err: ErrNoHeader}
	}

	ds := Dataset{
		Headers: headers,
		Columns: MatchColumns(headers, opts.Aliases),
	}
	prof := newProfiler(len(headers))

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Dataset{}, wrapCSVError(err)
		}
		ds.Rows++

		if blankRow(row) {
			ds.SkippedRows++
			continue
		}

		prof.observe(row)
		ds.Records = append(ds.Records, buildRecord(ds.Rows, row, headers, ds.Columns))

		if opts.Progress != nil && ds.Rows%progressEvery == 0 {
			opts.Progress(counter.n, opts.TotalBytes)
		}
	}

	ds.Bytes = counter.n
	ds.Profiles = prof.profiles(headers)
	if opts.Progress != nil {
		opts.Progress(counter.n, max(opts.TotalBytes, counter.n))
	}
	return ds, nil
}

func buildRecord(rowNum int, row, headers []string, cols ColumnMap) model.UsageRecord {
	rec := model.UsageRecord{Row: rowNum}

	if raw, ok := cell(row, cols.Index(RoleDate)); ok {
		if t, ok := ParseDate(raw); ok {
			rec.Date = t
		}
	}
	if raw, ok := cell(row, cols.Index(RoleService)); ok {
		rec.Service = raw
	}
	if raw, ok := cell(row, cols.Index(RoleResourceGroup)); ok {
		rec.ResourceGroup = raw
	}
	if raw, ok := cell(row, cols.Index(RoleCost)); ok {
		if d, ok := ParseNumber(raw); ok {
			rec.Cost, rec.HasCost = d, true
		}
	}

	for i, h := range headers {
		if isRoleIndex(cols, i) || i >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[i])
		if v == "" {
			continue
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]string)
		}
		rec.Extra[h] = v
	}
	return rec
}

// cell returns the trimmed value at idx, or false if the column is
// absent, short, or blank.
func cell(row []string, idx int) (string, bool) {
	if idx < 0 || idx >= len(row) {
		return "", false
	}
	v := strings.TrimSpace(row[idx])
	return v, v != ""
}

func isRoleIndex(cols ColumnMap, i int) bool {
	for r := Role(0); r < numRoles; r++ {
		if cols.Index(r) == i {
			return true
		}
	}
	return false
}

// cleanHeaders trims header cells and names blank or duplicate ones by
// position so every column has a distinct key. It reports false when
// every header cell is blank.
func cleanHeaders(raw []string) ([]string, bool) {
	out := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	named := false
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "column_" + strconv.Itoa(i+1)
		} else {
			named = true
		}
		if n := seen[h]; n > 0 {
			seen[h] = n + 1
			h = h + "_" + strconv.Itoa(n+1)
		} else {
			seen[h] = 1
		}
		out[i] = h
	}
	return out, named
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func wrapCSVError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.Line, Err: pe.Err}
	}
	return &ParseError{Err: err}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// profiler tallies inferred kinds over the first profileSample rows.
type profiler struct {
	counts [][]int
	seen   int
}

func newProfiler(cols int) *profiler {
	p := &profiler{counts: make([][]int, cols)}
	for i := range p.counts {
		p.counts[i] = make([]int, KindString+1)
	}
	return p
}

func (p *profiler) observe(row []string) {
	if p.seen >= profileSample {
		return
	}
	p.seen++
	for i := 0; i < len(row) && i < len(p.counts); i++ {
		p.counts[i][InferValue(row[i]).Kind]++
	}
}

// profiles reports the single non-null kind seen in each column. A
// column mixing kinds is a string column.
func (p *profiler) profiles(headers []string) []ColumnProfile {
	out := make([]ColumnProfile, len(headers))
	for i, h := range headers {
		out[i] = ColumnProfile{Header: h, Kind: KindNull}
		var kinds int
		for k := KindBool; k <= KindString; k++ {
			if p.counts[i][k] > 0 {
				kinds++
				out[i].Kind = k
			}
		}
		if kinds > 1 {
			out[i].Kind = KindString
		}
	}
	return out
}
