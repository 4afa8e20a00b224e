package model

import "time"

// Outcome is how a reconciliation run ended.
type Outcome string

const (
	OutcomeNoChanges Outcome = "no_changes"
	OutcomeDeclined  Outcome = "declined"
	OutcomeSubmitted Outcome = "submitted"
	OutcomeFailed    Outcome = "failed"
)

// RunRecord is the audit entry for one reconciliation run.
type RunRecord struct {
	ID         string         `json:"id"`
	Command    string         `json:"command"`
	ChainID    uint64         `json:"chain_id"`
	Outcome    Outcome        `json:"outcome"`
	TxHash     string         `json:"tx_hash,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Changes    []FieldChange  `json:"changes"`
	Writes     []PendingWrite `json:"writes"`
	Error      string         `json:"error,omitempty"`
}
