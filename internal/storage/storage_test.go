package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"configSync/internal/model"
)

func sampleRun() model.RunRecord {
	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return model.RunRecord{
		ID:         uuid.NewString(),
		Command:    "impact",
		ChainID:    42161,
		Outcome:    model.OutcomeDeclined,
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Changes:    []model.FieldChange{{Target: "WETH [WETH/USDC]", Field: "minPositionImpactPoolAmount", Current: "5.00", Next: "9.00", Ratio: "1.8000x"}},
		Writes:     []model.PendingWrite{{Target: "WETH [WETH/USDC]", Method: "setPositionImpactDistributionRate", CallData: []byte{0xde, 0xad}}},
	}
}

func TestJsonlSinkAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "runs.jsonl")
	sink := NewJsonlSink(path)

	first, second := sampleRun(), sampleRun()
	second.Outcome = model.OutcomeSubmitted
	require.NoError(t, sink.PutRun(context.Background(), first))
	require.NoError(t, sink.PutRun(context.Background(), second))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var got []model.RunRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var run model.RunRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &run))
		got = append(got, run)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, model.OutcomeSubmitted, got[1].Outcome)
	assert.Equal(t, []byte{0xde, 0xad}, []byte(got[0].Writes[0].CallData))
}

type failingSink struct{ err error }

func (f failingSink) PutRun(context.Context, model.RunRecord) error { return f.err }

func TestMultiSinkWritesAllAndJoinsErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	boom := errors.New("db down")
	sink := MultiSink{failingSink{err: boom}, nil, NewJsonlSink(path)}

	err := sink.PutRun(context.Background(), sampleRun())
	require.ErrorIs(t, err, boom)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestPlanFileSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans", "impact.json")
	pf := NewPlanFile(path)

	_, ok, err := pf.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	run := sampleRun()
	plan := model.Plan{Command: "impact", Writes: run.Writes, Changes: run.Changes}
	require.NoError(t, pf.Save(42161, plan))

	snap, ok, err := pf.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(42161), snap.ChainID)
	assert.Equal(t, plan.Changes, snap.Plan.Changes)
	assert.Equal(t, "setPositionImpactDistributionRate", snap.Plan.Writes[0].Method)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
