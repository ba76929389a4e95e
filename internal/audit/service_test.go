package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTimelineRepo struct {
	rows       []TimelineRow
	lastFilter TimelineFilters
	lastOffset int
	lastLimit  int
}

func (s *stubTimelineRepo) Window(_ context.Context, f TimelineFilters, offset, limit int) ([]TimelineRow, error) {
	s.lastFilter, s.lastOffset, s.lastLimit = f, offset, limit
	end := min(offset+limit, len(s.rows))
	if offset >= end {
		return nil, nil
	}
	return s.rows[offset:end], nil
}

func (s *stubTimelineRepo) All(_ context.Context, f TimelineFilters) ([]TimelineRow, error) {
	s.lastFilter = f
	return s.rows, nil
}

func sampleRows(n int) []TimelineRow {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	rows := make([]TimelineRow, n)
	for i := range rows {
		rows[i] = TimelineRow{
			ID:       int64(n - i),
			At:       base.Add(-time.Duration(i) * time.Hour),
			ActorID:  1,
			Actor:    "admin",
			Action:   "post.update",
			Entity:   "post",
			EntityID: "p",
		}
	}
	return rows
}

func TestServiceTimelinePaging(t *testing.T) {
	repo := &stubTimelineRepo{rows: sampleRows(3)}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, result.Rows, 2)
	assert.True(t, result.Paging.HasNext)
	assert.Equal(t, 2, result.Paging.NextPage)
	assert.Zero(t, result.Paging.PrevPage)
	assert.Equal(t, 3, repo.lastLimit)
	assert.Equal(t, 0, repo.lastOffset)

	result, err = svc.Timeline(context.Background(), TimelineFilters{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, result.Rows, 1)
	assert.False(t, result.Paging.HasNext)
	assert.Equal(t, 1, result.Paging.PrevPage)
	assert.Equal(t, 2, repo.lastOffset)
}

func TestServiceTimelineDefaults(t *testing.T) {
	repo := &stubTimelineRepo{}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize+1, repo.lastLimit)
	assert.Equal(t, 1, result.Paging.Page)
	assert.NotNil(t, result.Rows)
	assert.Empty(t, result.Rows)

	_, err = svc.Timeline(context.Background(), TimelineFilters{})
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize+1, repo.lastLimit)
}

func TestServiceExportReturnsAllRows(t *testing.T) {
	repo := &stubTimelineRepo{rows: sampleRows(4)}
	rows, err := NewService(repo).Export(context.Background(), TimelineFilters{Entity: "post"})
	require.NoError(t, err)
	assert.Len(t, rows, 4)
	assert.Equal(t, "post", repo.lastFilter.Entity)

	_, err = NewService(nil).Export(context.Background(), TimelineFilters{})
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	rows := sampleRows(1)
	rows[0].Meta = map[string]any{"title": "Hello, world"}
	body, err := WriteCSV(rows)
	require.NoError(t, err)

	lines := splitLines(string(body))
	require.Len(t, lines, 2)
	assert.Equal(t, "id,occurred_at,actor_id,actor,action,entity,entity_id,meta", lines[0])
	assert.Equal(t, `1,2026-03-10T10:00:00Z,1,admin,post.update,post,p,"{""title"":""Hello, world""}"`, lines[1])
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
