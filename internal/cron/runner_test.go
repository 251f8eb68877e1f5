package cron

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gmsas95/dosekeeper-cli/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	mu        sync.Mutex
	refreshes int
	resyncs   int
}

func (c *countingRefresher) Refresh(ctx context.Context) ([]schedule.Dose, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshes++
	return []schedule.Dose{{NextTime: "08:00"}}, nil
}

func (c *countingRefresher) Resync(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resyncs++
	return nil
}

func (c *countingRefresher) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshes, c.resyncs
}

func TestRunner_StartStop(t *testing.T) {
	ref := &countingRefresher{}
	r := NewRunner(Config{Interval: 20 * time.Millisecond}, ref, nil)

	got := make(chan []schedule.Dose, 10)
	r.OnRefresh(func(d []schedule.Dose) {
		select {
		case got <- d:
		default:
		}
	})

	require.NoError(t, r.Start())
	assert.True(t, r.IsRunning())
	assert.Error(t, r.Start(), "second start fails")

	select {
	case doses := <-got:
		assert.Len(t, doses, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("no refresh")
	}

	assert.Eventually(t, func() bool {
		refreshes, _ := ref.counts()
		return refreshes >= 3
	}, 2*time.Second, 10*time.Millisecond)

	r.Stop()
	r.Stop()
	assert.False(t, r.IsRunning())

	_, resyncs := ref.counts()
	assert.Equal(t, 1, resyncs, "resync once at startup")
}

func TestRunner_DefaultInterval(t *testing.T) {
	r := NewRunner(Config{}, &countingRefresher{}, nil)
	assert.Equal(t, 60*time.Second, r.config.Interval)
}

func TestRunner_ResyncsOnStoreChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dosekeeper.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0644))

	ref := &countingRefresher{}
	r := NewRunner(Config{
		Interval:  time.Hour,
		WatchPath: path,
		Debounce:  20 * time.Millisecond,
	}, ref, nil)
	require.NoError(t, r.Start())
	defer r.Stop()

	// Unrelated files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(path, []byte(`{"@medicines":[]}`), 0644))

	assert.Eventually(t, func() bool {
		_, resyncs := ref.counts()
		return resyncs >= 2
	}, 3*time.Second, 10*time.Millisecond)
}

func TestRunner_ResyncOnTick(t *testing.T) {
	ref := &countingRefresher{}
	r := NewRunner(Config{Interval: 10 * time.Millisecond, ResyncOnTick: true}, ref, nil)
	require.NoError(t, r.Start())
	defer r.Stop()

	assert.Eventually(t, func() bool {
		_, resyncs := ref.counts()
		return resyncs >= 3
	}, 2*time.Second, 10*time.Millisecond)
}
