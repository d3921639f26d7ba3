package async

import (
	"context"
	"time"
)

// Job asks for one PDF to be extracted and stored.
type Job struct {
	Path        string
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
