package domain

import "time"

type AlertKind string

const (
	AlertLowStock AlertKind = "low_stock"
	AlertExpiring AlertKind = "expiring"
	AlertExpired  AlertKind = "expired"
)

type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
)

func (s Severity) String() string {
	switch s {
	case SeverityHigh:
		return "high"
	case SeverityMedium:
		return "medium"
	case SeverityLow:
		return "low"
	}
	return "unknown"
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Alert is derived from catalog state on every classification pass and never stored.
type Alert struct {
	ID          string    `json:"id"`
	Kind        AlertKind `json:"type"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	DrugID      string    `json:"drug_id"`
	DrugName    string    `json:"drug_name"`
	Severity    Severity  `json:"severity"`
	GeneratedAt time.Time `json:"created_at"`
}
