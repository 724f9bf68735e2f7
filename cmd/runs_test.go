package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shelfmetrics/enrich-cli/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:        "abc12345-6789-0000-0000-000000000000",
			Query:     "HP W1331X",
			Mode:      model.ModeFast,
			Status:    model.StatusDone,
			CreatedAt: now,
			UpdatedAt: now.Add(2 * time.Minute),
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Query:     "Canon PG-545XL black high yield ink cartridge with extras",
			Mode:      model.ModeStandard,
			Status:    model.StatusNeedsReview,
			CreatedAt: now.Add(-1 * time.Hour),
			UpdatedAt: now.Add(-30 * time.Minute),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "QUERY")
	assert.Contains(t, output, "STATUS")
	assert.Contains(t, output, "HP W1331X")
	assert.Contains(t, output, "done")
	assert.Contains(t, output, "needs_review")
	assert.Contains(t, output, "2026-03-15 10:30")
	assert.Contains(t, output, "abc12345")
	// Long queries are truncated for the table.
	assert.Contains(t, output, "Canon PG-545XL black high y...")
}

func TestRunsStats(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	rec := model.NewRecord(model.Identity{Raw: "HP W1331X"})

	runs := []model.Run{
		{
			ID:        "1",
			Status:    model.StatusDone,
			Record:    rec,
			CreatedAt: now,
			UpdatedAt: now.Add(2 * time.Minute),
		},
		{
			ID:        "2",
			Status:    model.StatusDone,
			Record:    rec,
			CreatedAt: now.Add(5 * time.Minute),
			UpdatedAt: now.Add(8 * time.Minute),
		},
		{
			ID:        "3",
			Status:    model.StatusNeedsReview,
			Record:    rec,
			CreatedAt: now.Add(10 * time.Minute),
			UpdatedAt: now.Add(10*time.Minute + 30*time.Second),
		},
		{
			ID:        "4",
			Status:    model.StatusFailed,
			CreatedAt: now.Add(15 * time.Minute),
			UpdatedAt: now.Add(15*time.Minute + 10*time.Second),
		},
	}

	stats := computeRunStats(runs)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Done)
	assert.Equal(t, 1, stats.NeedsReview)
	assert.Equal(t, 1, stats.Failed)
	// Average over the 3 runs that produced a record: (120s + 180s + 30s) / 3 = 110s.
	assert.InDelta(t, 110.0, stats.AvgDurSecs, 0.1)

	var buf bytes.Buffer
	formatRunStats(&buf, stats)

	output := buf.String()
	assert.Contains(t, output, "Total runs:")
	assert.Contains(t, output, "Done:")
	assert.Contains(t, output, "Needs review:")
	assert.Contains(t, output, "Failed:")
	assert.Contains(t, output, "110.0s")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789-0000-0000-000000000000"))
	assert.Equal(t, "short", truncateID("short"))
}
