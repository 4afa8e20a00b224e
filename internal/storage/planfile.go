package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"configSync/internal/model"
)

// PlanSnapshot is the on-disk form of a plan awaiting review.
type PlanSnapshot struct {
	ChainID   uint64     `json:"chain_id"`
	CreatedAt string     `json:"created_at"`
	Plan      model.Plan `json:"plan"`
}

// PlanFile persists the latest plan for review.
type PlanFile struct {
	path string
}

func NewPlanFile(path string) *PlanFile {
	return &PlanFile{path: path}
}

func (p *PlanFile) Load() (PlanSnapshot, bool, error) {
	stat, err := os.Stat(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return PlanSnapshot{}, false, nil
		}
		return PlanSnapshot{}, false, fmt.Errorf("stat plan file: %w", err)
	}
	if stat.IsDir() {
		return PlanSnapshot{}, false, fmt.Errorf("plan path is a directory")
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		return PlanSnapshot{}, false, fmt.Errorf("read plan file: %w", err)
	}

	var snap PlanSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return PlanSnapshot{}, false, fmt.Errorf("parse plan file: %w", err)
	}
	return snap, true, nil
}

// Save replaces the plan file atomically.
func (p *PlanFile) Save(chainID uint64, plan model.Plan) error {
	dir := filepath.Dir(p.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create plan dir: %w", err)
		}
	}

	snap := PlanSnapshot{
		ChainID:   chainID,
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Plan:      plan,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}

	tmpPath := p.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write plan tmp: %w", err)
	}
	if err := os.Rename(tmpPath, p.path); err != nil {
		return fmt.Errorf("rename plan: %w", err)
	}
	return nil
}
