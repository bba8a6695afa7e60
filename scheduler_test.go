package topicblog

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebuilderRunsPeriodically(t *testing.T) {
	var runs atomic.Int32
	build := func(ctx context.Context) (BuildReport, error) {
		runs.Add(1)
		if _, ok := ctx.Deadline(); !ok {
			return BuildReport{}, errors.New("rebuild without deadline")
		}
		return BuildReport{ID: "b"}, nil
	}

	r, err := NewRebuilder(build, 50*time.Millisecond, time.Second, slog.Default())
	require.NoError(t, err)
	r.Start()

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, r.Stop())
}

func TestScheduledRebuildFailureKeepsOutput(t *testing.T) {
	cfg := testConfig(t)
	store := newTestStore(t)
	app := newTestApp(t, cfg, store)
	first, err := ReadManifest(cfg.OutputDir)
	require.NoError(t, err)

	flaky := &flakySource{Source: store, allArticles: errors.New("backend down")}
	failing := NewGenerator(cfg, flaky, app.Views, slog.Default(), nil)
	r, err := NewRebuilder(failing.Build, 30*time.Millisecond, time.Second, slog.Default())
	require.NoError(t, err)
	r.Start()
	time.Sleep(120 * time.Millisecond)
	require.NoError(t, r.Stop())

	manifest, err := ReadManifest(cfg.OutputDir)
	require.NoError(t, err)
	assert.Equal(t, first.ID, manifest.ID)
}

func TestRebuilderWithoutTimeoutLeavesBuildUnbounded(t *testing.T) {
	deadlines := make(chan bool, 8)
	build := func(ctx context.Context) (BuildReport, error) {
		_, ok := ctx.Deadline()
		select {
		case deadlines <- ok:
		default:
		}
		return BuildReport{}, nil
	}

	r, err := NewRebuilder(build, 20*time.Millisecond, 0, slog.Default())
	require.NoError(t, err)
	r.Start()
	defer r.Stop()

	select {
	case hasDeadline := <-deadlines:
		assert.False(t, hasDeadline)
	case <-time.After(2 * time.Second):
		t.Fatal("rebuild never ran")
	}
}
