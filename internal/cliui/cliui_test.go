package cliui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTable_GroupsByLaneAndSortsWithinLane(t *testing.T) {
	rows := []Row{
		{WuID: "WU-3", Lane: "core", Status: "ready", Title: "third"},
		{WuID: "WU-1", Lane: "core", Status: "in_progress", Title: "first"},
		{WuID: "WU-2", Lane: "docs", Status: "done", Title: "second"},
	}

	out := renderTable(Styles{}, rows)

	coreIdx := strings.Index(out, "core")
	docsIdx := strings.Index(out, "docs")
	wu1Idx := strings.Index(out, "WU-1")
	wu3Idx := strings.Index(out, "WU-3")
	wu2Idx := strings.Index(out, "WU-2")

	require.True(t, coreIdx >= 0 && docsIdx >= 0)
	assert.True(t, coreIdx < wu1Idx, "lane header must precede its rows")
	assert.True(t, wu1Idx < wu3Idx, "WU-1 sorts before WU-3 within the same lane")
	assert.True(t, docsIdx < wu2Idx, "docs lane header must precede its row")
	assert.True(t, wu3Idx < docsIdx, "core lane rows must all precede the docs lane header")
}

func TestRenderTable_EmptyRowsReportsNoWorkUnits(t *testing.T) {
	out := renderTable(Styles{}, nil)
	assert.Equal(t, "no work units found\n", out)
}

func TestPlainRender_OmitsANSIEscapes(t *testing.T) {
	rows := []Row{{WuID: "WU-1", Lane: "core", Status: "blocked", Title: "needs review"}}
	out := PlainRender(rows)

	assert.Contains(t, out, "WU-1")
	assert.Contains(t, out, "core")
	assert.Contains(t, out, "blocked")
	assert.NotContains(t, out, "\x1b[", "plain render must not carry ANSI escape codes")
}

func TestRun_PlainFallbackPrintsAtLeastOnceThenStopsOnCancel(t *testing.T) {
	calls := 0
	refresh := func() ([]Row, error) {
		calls++
		return []Row{{WuID: "WU-1", Lane: "core", Status: "ready", Title: "demo"}}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	var out strings.Builder

	done := make(chan error, 1)
	go func() { done <- Run(ctx, false, refresh, 10*time.Millisecond, &out) }()

	time.Sleep(25 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}

	assert.GreaterOrEqual(t, calls, 1)
	assert.Contains(t, out.String(), "WU-1")
}

func TestRun_PlainFallbackReportsRefreshErrorsWithoutStopping(t *testing.T) {
	refresh := func() ([]Row, error) {
		return nil, errors.New("store unavailable")
	}

	ctx, cancel := context.WithCancel(context.Background())
	var out strings.Builder

	done := make(chan error, 1)
	go func() { done <- Run(ctx, false, refresh, 10*time.Millisecond, &out) }()

	time.Sleep(15 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}

	assert.Contains(t, out.String(), "error refreshing status")
}
