package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskIncrementViews adds one view to a post.
	TaskIncrementViews = "posts:increment_views"
)

// IncrementViewsPayload identifies the viewed post.
type IncrementViewsPayload struct {
	PostID uuid.UUID `json:"post_id"`
}

// NewIncrementViewsTask constructs an Asynq task for a single post view.
func NewIncrementViewsTask(postID uuid.UUID) (*asynq.Task, error) {
	body, err := json.Marshal(IncrementViewsPayload{PostID: postID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIncrementViews, body, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}
