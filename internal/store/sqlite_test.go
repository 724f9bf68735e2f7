package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmetrics/enrich-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleRecord() *model.EnrichedRecord {
	rec := model.NewRecord(model.Identity{Raw: "HP W1331X", Brand: "HP", Model: "W1331X"})
	rec.Packaging = &model.Packaging{WidthMM: 120, HeightMM: 80, DepthMM: 40, WeightG: 250,
		Sources: []string{"https://icecat.biz/p/hp/w1331x"}, Confidence: 0.9}
	rec.Compatibility = model.Compatibility{
		Printers: []string{"HP LaserJet M211dw"},
		Sources:  []string{"https://www.hp.com/supplies/w1331x"},
		Trusted:  true,
	}
	rec.Status = model.StatusDone
	return rec
}

func TestSQLiteStore_CreateAndGetRun(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "HP W1331X", model.ModeStandard)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.StatusNeedsReview, run.Status)

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "HP W1331X", got.Query)
	assert.Equal(t, model.ModeStandard, got.Mode)
	assert.Nil(t, got.Record)
}

func TestSQLiteStore_SaveResultRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "HP W1331X", model.ModeFast)
	require.NoError(t, err)

	rec := sampleRecord()
	logs := []string{"run started", "iteration 1: collected 4 new sources"}
	require.NoError(t, s.SaveResult(ctx, run.ID, rec, logs, model.StatusDone))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, got.Status)
	require.NotNil(t, got.Record)
	assert.Equal(t, "W1331X", got.Record.Identity.Model)
	require.NotNil(t, got.Record.Packaging)
	assert.Equal(t, 120.0, got.Record.Packaging.WidthMM)
	assert.Equal(t, logs, got.Logs)
}

func TestSQLiteStore_SaveResultUnknownRun(t *testing.T) {
	s := newTestSQLite(t)

	err := s.SaveResult(context.Background(), "nope", sampleRecord(), nil, model.StatusDone)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteStore_GetRunNotFound(t *testing.T) {
	s := newTestSQLite(t)

	_, err := s.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteStore_ListRunsFilterAndOrder(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	a, err := s.CreateRun(ctx, "HP W1331X", model.ModeFast)
	require.NoError(t, err)
	_, err = s.CreateRun(ctx, "Canon PG-545XL", model.ModeStandard)
	require.NoError(t, err)

	require.NoError(t, s.SaveResult(ctx, a.ID, sampleRecord(), nil, model.StatusDone))

	all, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	done, err := s.ListRuns(ctx, RunFilter{Status: model.StatusDone})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, a.ID, done[0].ID)

	limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
