package model

import "strings"

// Severity is the vulnerability severity reported by the backend.
// The set is open: values outside the known levels are kept verbatim.
type Severity string

const (
	// SeverityCritical is the highest level.
	SeverityCritical Severity = "Critical"
	// SeverityHigh is a high impact vulnerability.
	SeverityHigh Severity = "High"
	// SeverityMedium is a medium impact vulnerability.
	SeverityMedium Severity = "Medium"
	// SeverityLow is a low impact vulnerability.
	SeverityLow Severity = "Low"
	// SeverityUnknown is used when the backend has no rating.
	SeverityUnknown Severity = "Unknown"
)

// Rank returns an integer rank for ordering (Low=1, Critical=4, anything else 0)
func (s Severity) Rank() int {
	switch strings.ToLower(string(s)) {
	case "low":
		return 1
	case "medium", "moderate":
		return 2
	case "high":
		return 3
	case "critical":
		return 4
	default:
		return 0
	}
}

// Known reports whether s is one of the enumerated levels
func (s Severity) Known() bool {
	return s.Rank() > 0 || strings.EqualFold(string(s), string(SeverityUnknown))
}

// Label is the text shown for the severity; an empty value renders as Unknown
func (s Severity) Label() string {
	if strings.TrimSpace(string(s)) == "" {
		return string(SeverityUnknown)
	}
	return string(s)
}

func (s Severity) String() string {
	return string(s)
}
