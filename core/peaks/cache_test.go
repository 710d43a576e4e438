package peaks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"CutRoom/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingExtractor counts decodes and can be told to fail or stall.
type countingExtractor struct {
	calls   atomic.Int64
	fail    bool
	stall   time.Duration
	envelope []float64
}

func (f *countingExtractor) Available() bool { return true }

func (f *countingExtractor) Extract(ctx context.Context, inputFile string, pointCount int) (model.PeaksData, error) {
	f.calls.Add(1)
	if f.stall > 0 {
		time.Sleep(f.stall)
	}
	if f.fail {
		return model.PeaksData{}, errors.New("decode blew up")
	}
	return model.PeaksData{Peaks: f.envelope, Duration: 4.2}, nil
}

func tempAudioFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(path, []byte("not real audio"), 0644))
	return path
}

func TestGetPeaksDeduplicatesConcurrentCalls(t *testing.T) {
	ext := &countingExtractor{stall: 50 * time.Millisecond, envelope: []float64{0.5, 1.0}}
	cache := NewCache(NewResolver(nil), ext)
	url := tempAudioFile(t)

	var wg sync.WaitGroup
	results := make([]model.PeaksData, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data, err := cache.GetPeaks(context.Background(), url, 512)
			require.NoError(t, err)
			results[i] = data
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), ext.calls.Load())
	for _, data := range results {
		assert.Equal(t, []float64{0.5, 1.0}, data.Peaks)
		assert.Equal(t, 4.2, data.Duration)
	}
}

func TestGetPeaksCachesPerKey(t *testing.T) {
	ext := &countingExtractor{envelope: []float64{1}}
	cache := NewCache(NewResolver(nil), ext)
	url := tempAudioFile(t)

	_, err := cache.GetPeaks(context.Background(), url, 512)
	require.NoError(t, err)
	_, err = cache.GetPeaks(context.Background(), url, 512)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ext.calls.Load(), "same key decodes once")

	// A different resolution is a different key.
	_, err = cache.GetPeaks(context.Background(), url, 256)
	require.NoError(t, err)
	assert.Equal(t, int64(2), ext.calls.Load())
	assert.Equal(t, 2, cache.Len())
}

func TestGetPeaksFailureEvictsAndRetries(t *testing.T) {
	ext := &countingExtractor{fail: true}
	cache := NewCache(NewResolver(nil), ext)
	url := tempAudioFile(t)

	_, err := cache.GetPeaks(context.Background(), url, 128)
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len(), "failed entry is evicted")

	ext.fail = false
	ext.envelope = []float64{0.25}
	data, err := cache.GetPeaks(context.Background(), url, 128)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25}, data.Peaks)
}

func TestGetPeaksCallerContextOnlyBoundsTheWait(t *testing.T) {
	ext := &countingExtractor{stall: 100 * time.Millisecond, envelope: []float64{1}}
	cache := NewCache(NewResolver(nil), ext)
	url := tempAudioFile(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := cache.GetPeaks(ctx, url, 64)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The detached decode still completes and populates the cache.
	data, err := cache.GetPeaks(context.Background(), url, 64)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, data.Peaks)
	assert.Equal(t, int64(1), ext.calls.Load())
}

func TestMaxEnvelope(t *testing.T) {
	samples := []int16{0, 100, -200, 50, 300, -400, 20, 10}
	peaks := MaxEnvelope(samples, 4)
	require.Len(t, peaks, 4)
	assert.InDelta(t, 100.0/32768, peaks[0], 1e-9)
	assert.InDelta(t, 200.0/32768, peaks[1], 1e-9)
	assert.InDelta(t, 400.0/32768, peaks[2], 1e-9)
	assert.InDelta(t, 20.0/32768, peaks[3], 1e-9)
}

func TestMaxEnvelopeEdgeShapes(t *testing.T) {
	assert.Empty(t, MaxEnvelope(nil, 16))
	assert.Empty(t, MaxEnvelope([]int16{1, 2}, 0))

	// Fewer samples than points: trailing buckets stay zero.
	peaks := MaxEnvelope([]int16{-32768, 16384}, 4)
	require.Len(t, peaks, 4)
	assert.InDelta(t, 1.0, peaks[0], 1e-4)
	assert.InDelta(t, 0.5, peaks[1], 1e-9)
	assert.Equal(t, 0.0, peaks[2])
}
