package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/paisaid/paisaid-cms/internal/jobs"
	"github.com/paisaid/paisaid-cms/internal/shared"
)

// ViewCounter persists a post view.
type ViewCounter interface {
	CountView(ctx context.Context, postID uuid.UUID) error
}

// PostViewsJob applies queued post views.
type PostViewsJob struct {
	Counter ViewCounter
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewPostViewsJob wires dependencies for the view handler.
func NewPostViewsJob(counter ViewCounter, logger *slog.Logger, metrics *jobmetrics.Metrics) *PostViewsJob {
	return &PostViewsJob{Counter: counter, Logger: logger, Metrics: metrics}
}

// Handle processes TaskIncrementViews tasks. Views of deleted posts are dropped.
func (j *PostViewsJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Counter == nil {
		return errors.New("post views: handler not configured")
	}
	var payload IncrementViewsPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.PostID == uuid.Nil {
		return fmt.Errorf("post views: bad payload: %w", asynq.SkipRetry)
	}

	tracker := j.Metrics.Track(TaskIncrementViews)
	err := j.Counter.CountView(ctx, payload.PostID)
	if errors.Is(err, shared.ErrNotFound) {
		j.logger().Info("view for missing post dropped", slog.String("post_id", payload.PostID.String()))
		return tracker.End(nil)
	}
	if err != nil {
		j.logger().Error("count post view", slog.String("post_id", payload.PostID.String()), slog.Any("error", err))
		return tracker.End(err)
	}
	j.Metrics.AddPostViews(1)
	return tracker.End(nil)
}

func (j *PostViewsJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
