// Package source reads Azure billing CSV exports into usage records.
package source

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/azcost/internal/model"
)

// Role identifies which dashboard field a CSV column feeds.
type Role int

const (
	RoleDate Role = iota
	RoleService
	RoleResourceGroup
	RoleCost

	numRoles = 4
)

// Roles lists every role in matching priority order.
var Roles = []Role{RoleCost, RoleDate, RoleService, RoleResourceGroup}

func (r Role) String() string {
	switch r {
	case RoleDate:
		return "date"
	case RoleService:
		return "service"
	case RoleResourceGroup:
		return "resource_group"
	case RoleCost:
		return "cost"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ColumnMap records which header index was matched to each role.
type ColumnMap struct {
	index   [numRoles]int
	headers []string
}

// Has reports whether a column was matched for the role.
func (c ColumnMap) Has(r Role) bool {
	return c.Index(r) >= 0
}

// Index returns the column index matched for the role, or -1.
func (c ColumnMap) Index(r Role) int {
	if r < 0 || int(r) >= numRoles || c.headers == nil {
		return -1
	}
	return c.index[r]
}

// Header returns the original header text matched for the role, or "".
func (c ColumnMap) Header(r Role) string {
	i := c.Index(r)
	if i < 0 || i >= len(c.headers) {
		return ""
	}
	return c.headers[i]
}

// ColumnProfile describes the dominant inferred type of one CSV column.
type ColumnProfile struct {
	Header string
	Kind   Kind
}

// Dataset is the parsed contents of one CSV upload.
type Dataset struct {
	Name        string
	Bytes       int64
	Headers     []string
	Columns     ColumnMap
	Profiles    []ColumnProfile
	Records     []model.UsageRecord
	Rows        int // data rows read, including skipped blanks
	SkippedRows int
}

// ProgressFunc is called during parsing with bytes consumed so far.
// total is 0 when the input size is unknown.
type ProgressFunc func(current, total int64)

// ParseOptions tunes CSV ingestion.
type ParseOptions struct {
	// Aliases are extra normalized header names per role, tried before
	// the built-in Azure names.
	Aliases map[Role][]string

	// TotalBytes is the expected input size, forwarded to Progress.
	TotalBytes int64
	Progress   ProgressFunc
}

var (
	ErrEmptyFile = errors.New("file is empty")
	ErrNoHeader  = errors.New("missing header row")
)

// ParseError reports that the raw input could not be read or tokenized.
type ParseError struct {
	Line int // 0 when the failure is not tied to a line
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }
