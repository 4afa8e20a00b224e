package model

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// PendingWrite is one encoded Config call awaiting submission.
type PendingWrite struct {
	Target      string        `json:"target"`
	Method      string        `json:"method"`
	CallData    hexutil.Bytes `json:"call_data"`
	Description string        `json:"description"`
}

// FieldChange is a detected difference between on-chain and declared values.
type FieldChange struct {
	Target  string `json:"target"`
	Field   string `json:"field"`
	Current string `json:"current"`
	Next    string `json:"next"`
	Ratio   string `json:"ratio"`
}

func (c FieldChange) String() string {
	return fmt.Sprintf("%-38s%-18s %s -> %s (%s)", c.Field, c.Target, c.Current, c.Next, c.Ratio)
}

// SkippedTarget records a declared entry left out of the plan.
type SkippedTarget struct {
	Target string `json:"target"`
	Reason string `json:"reason"`
}

// Plan is the ordered write set produced by one reconciliation.
type Plan struct {
	Command string          `json:"command"`
	Writes  []PendingWrite  `json:"writes"`
	Changes []FieldChange   `json:"changes"`
	Skipped []SkippedTarget `json:"skipped,omitempty"`
}

// Empty reports whether nothing needs to be written.
func (p Plan) Empty() bool {
	return len(p.Writes) == 0
}

// CallData returns the encoded calls in plan order.
func (p Plan) CallData() [][]byte {
	calls := make([][]byte, 0, len(p.Writes))
	for _, w := range p.Writes {
		calls = append(calls, []byte(w.CallData))
	}
	return calls
}
