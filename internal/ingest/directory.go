package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/tradedocs/internal/async"
)

type FileResult struct {
	Path string
	Err  string
}

type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Submitted uint32
	Failed    uint32
}

// ScanDirectory walks root and returns every PDF beneath it, skipping hidden
// entries when requested. Walk errors are reported per entry.
func ScanDirectory(root string, skipHidden bool) ([]string, []FileResult, DirStats, error) {
	var stats DirStats
	if strings.TrimSpace(root) == "" {
		return nil, nil, stats, errors.New("root path is required")
	}
	var (
		paths  []string
		failed []FileResult
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			failed = append(failed, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(path) {
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	return paths, failed, stats, err
}

// SubmitDirectory enqueues every PDF under root onto q.
func SubmitDirectory(ctx context.Context, q async.Queue, root string, skipHidden bool, logger *slog.Logger) ([]FileResult, DirStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	paths, results, stats, err := ScanDirectory(root, skipHidden)
	if err != nil {
		logger.Error("ingest.dir.scan.failed", "root", root, "error", err)
		return results, stats, err
	}
	for _, p := range paths {
		job := async.Job{Path: p, SubmittedAt: time.Now(), TraceID: uuid.NewString()}
		if err := q.Enqueue(ctx, job); err != nil {
			results = append(results, FileResult{Path: p, Err: err.Error()})
			stats.Failed++
			if ctx.Err() != nil {
				return results, stats, ctx.Err()
			}
			continue
		}
		results = append(results, FileResult{Path: p})
		stats.Submitted++
	}
	logger.Info("ingest.dir.submitted", "root", root, "matched", stats.Matched, "submitted", stats.Submitted, "failed", stats.Failed)
	return results, stats, nil
}

// Forward enqueues watcher events until events is closed or ctx is done.
func Forward(ctx context.Context, events <-chan string, q async.Queue, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-events:
			if !ok {
				return
			}
			job := async.Job{Path: p, SubmittedAt: time.Now(), TraceID: uuid.NewString()}
			if err := q.Enqueue(ctx, job); err != nil {
				logger.Warn("ingest.forward.enqueue_failed", "path", p, "error", err)
				continue
			}
			logger.Debug("ingest.forward.enqueued", "path", p, "trace_id", job.TraceID)
		}
	}
}
