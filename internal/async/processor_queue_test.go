package async_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/tradedocs/internal/async"
	"github.com/joseph-ayodele/tradedocs/internal/core"
	"github.com/joseph-ayodele/tradedocs/internal/entity"
)

type fakeProcessor struct {
	mu      sync.Mutex
	paths   []string
	started chan string
	release chan struct{}
}

func (f *fakeProcessor) ProcessFile(ctx context.Context, path string) (*core.Processed, error) {
	if f.started != nil {
		f.started <- path
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.mu.Unlock()
	if path == "bad.pdf" {
		return nil, errors.New("conversion failed")
	}
	return &core.Processed{Document: &entity.Document{ID: uuid.New(), Status: "EXTRACTED"}}, nil
}

func TestProcessorQueue_ProcessesAndDrains(t *testing.T) {
	fp := &fakeProcessor{}
	var (
		mu      sync.Mutex
		results = map[string]error{}
	)
	q := async.NewProcessorQueue(fp, nil,
		async.WithWorkers(3),
		async.WithQueueSize(8),
		async.WithProcessTimeout(time.Minute),
		async.WithResultHook(func(_ context.Context, job async.Job, _ *core.Processed, err error) {
			mu.Lock()
			results[job.Path] = err
			mu.Unlock()
		}),
	)

	ctx := context.Background()
	for _, p := range []string{"a.pdf", "b.pdf", "bad.pdf", "c.pdf"} {
		require.NoError(t, q.Enqueue(ctx, async.Job{Path: p}))
	}
	q.Shutdown(ctx)

	fp.mu.Lock()
	got := append([]string(nil), fp.paths...)
	fp.mu.Unlock()
	sort.Strings(got)
	assert.Equal(t, []string{"a.pdf", "b.pdf", "bad.pdf", "c.pdf"}, got)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, results, 4)
	assert.Error(t, results["bad.pdf"])
	assert.NoError(t, results["a.pdf"])

	// after shutdown jobs are dropped, not processed
	require.NoError(t, q.Enqueue(ctx, async.Job{Path: "late.pdf"}))
	q.Shutdown(ctx)
	assert.NotContains(t, results, "late.pdf")
}

func TestProcessorQueue_BackpressureHonoursContext(t *testing.T) {
	fp := &fakeProcessor{started: make(chan string, 4), release: make(chan struct{})}
	q := async.NewProcessorQueue(fp, nil, async.WithWorkers(1), async.WithQueueSize(1))

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, async.Job{Path: "first.pdf"}))
	assert.Equal(t, "first.pdf", <-fp.started)
	require.NoError(t, q.Enqueue(ctx, async.Job{Path: "second.pdf"}))

	full, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err := q.Enqueue(full, async.Job{Path: "third.pdf"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(fp.release)
	q.Shutdown(ctx)
	assert.Len(t, fp.paths, 2)
}
