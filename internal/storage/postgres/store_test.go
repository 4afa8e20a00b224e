package postgres

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"configSync/internal/model"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container test skipped in short mode")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("configsync"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := NewStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	applyMigrations(t, ctx, store)
	return store
}

func applyMigrations(t *testing.T, ctx context.Context, store *Store) {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}

	migrations := filepath.Join(dir, "sql", "postgres")
	entries, err := os.ReadDir(migrations)
	require.NoError(t, err)

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".sql" {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		sql, err := os.ReadFile(filepath.Join(migrations, file))
		require.NoError(t, err)
		_, err = store.pool.Exec(ctx, string(sql))
		require.NoError(t, err, "migration %s", file)
	}
}

func TestStorePutRun(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	started := time.Now().UTC().Truncate(time.Millisecond)
	run := model.RunRecord{
		ID:         uuid.NewString(),
		Command:    "impact",
		ChainID:    42161,
		Outcome:    model.OutcomeDeclined,
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
		Writes: []model.PendingWrite{
			{Target: "WETH [WETH/USDC]", Method: "setPositionImpactDistributionRate", CallData: []byte{0x01}, Description: "first"},
			{Target: "WBTC [WBTC/USDC]", Method: "setPositionImpactDistributionRate", CallData: []byte{0x02}, Description: "second"},
		},
	}
	require.NoError(t, store.PutRun(ctx, run))

	outcome, txHash, writes, ok, err := store.LoadRun(ctx, run.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.OutcomeDeclined, outcome)
	assert.Empty(t, txHash)
	require.Len(t, writes, 2)
	assert.Equal(t, "WETH [WETH/USDC]", writes[0].Target)
	assert.Equal(t, []byte{0x02}, writes[1].CallData)

	// re-putting a run updates it in place
	run.Outcome = model.OutcomeSubmitted
	run.TxHash = "0xabc"
	require.NoError(t, store.PutRun(ctx, run))

	outcome, txHash, writes, ok, err = store.LoadRun(ctx, run.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.OutcomeSubmitted, outcome)
	assert.Equal(t, "0xabc", txHash)
	assert.Len(t, writes, 2)

	_, _, _, ok, err = store.LoadRun(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.False(t, ok)
}
