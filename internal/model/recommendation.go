package model

import "github.com/shopspring/decimal"

// Severity ranks how urgently a recommendation deserves attention.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Rank orders severities for sorting; higher is more urgent.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// Recommendation is one optimization hint derived from the aggregates.
type Recommendation struct {
	Rule     string          `json:"rule" yaml:"rule"`
	Severity Severity        `json:"severity" yaml:"severity"`
	Title    string          `json:"title" yaml:"title"`
	Detail   string          `json:"detail" yaml:"detail"`
	Subject  string          `json:"subject,omitempty" yaml:"subject,omitempty"`
	Amount   decimal.Decimal `json:"amount" yaml:"amount"`
}
