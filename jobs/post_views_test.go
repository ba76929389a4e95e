package jobs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/paisaid/paisaid-cms/internal/jobs"
	"github.com/paisaid/paisaid-cms/internal/shared"
)

type countingViews struct {
	counts map[uuid.UUID]int
	err    error
}

func (c *countingViews) CountView(_ context.Context, id uuid.UUID) error {
	if c.err != nil {
		return c.err
	}
	if _, ok := c.counts[id]; !ok {
		return fmt.Errorf("%w: post not found", shared.ErrNotFound)
	}
	c.counts[id]++
	return nil
}

func TestPostViewsJob(t *testing.T) {
	known := uuid.New()
	counter := &countingViews{counts: map[uuid.UUID]int{known: 0}}
	job := NewPostViewsJob(counter, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	ctx := context.Background()

	task, err := NewIncrementViewsTask(known)
	require.NoError(t, err)
	assert.Equal(t, TaskIncrementViews, task.Type())
	require.NoError(t, job.Handle(ctx, task))
	require.NoError(t, job.Handle(ctx, task))
	assert.Equal(t, 2, counter.counts[known])

	missing, err := NewIncrementViewsTask(uuid.New())
	require.NoError(t, err)
	require.NoError(t, job.Handle(ctx, missing))

	err = job.Handle(ctx, asynq.NewTask(TaskIncrementViews, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	counter.err = errors.New("db down")
	require.Error(t, job.Handle(ctx, task))
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func TestJobsHealth(t *testing.T) {
	cases := []struct {
		name      string
		inspector QueueInspector
		status    int
	}{
		{name: "no inspector", status: http.StatusOK},
		{name: "healthy", inspector: stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 4}}, status: http.StatusOK},
		{name: "empty queue", inspector: stubInspector{err: asynq.ErrQueueNotFound}, status: http.StatusOK},
		{name: "redis down", inspector: stubInspector{err: errors.New("dial tcp")}, status: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Route("/jobs", NewHandler(tc.inspector, nil).MountRoutes)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestNewWorkerRequiresHandlers(t *testing.T) {
	_, err := NewWorker(WorkerConfig{})
	require.Error(t, err)
}
