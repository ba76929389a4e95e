package posts

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/paisaid/paisaid-cms/internal/shared"
)

type memRepo struct {
	mu    sync.Mutex
	posts map[uuid.UUID]Post
	tags  map[uuid.UUID][]int64
	order []uuid.UUID
}

func newMemRepo() *memRepo {
	return &memRepo{posts: map[uuid.UUID]Post{}, tags: map[uuid.UUID][]int64{}}
}

func (m *memRepo) withTags(p Post) Post {
	p.Tags = []TagRef{}
	for _, id := range m.tags[p.ID] {
		p.Tags = append(p.Tags, TagRef{ID: id})
	}
	return p
}

func (m *memRepo) all() []Post {
	out := make([]Post, 0, len(m.order))
	for _, id := range m.order {
		if p, ok := m.posts[id]; ok {
			out = append(out, m.withTags(p))
		}
	}
	return out
}

func (m *memRepo) List(_ context.Context, _ shared.ListParams, filter Filter) ([]Post, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Post
	for _, p := range m.all() {
		if filter.PublishedOnly && p.Status != StatusPublished {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.CategoryID > 0 && p.Category.ID != filter.CategoryID {
			continue
		}
		out = append(out, p)
	}
	if filter.Sort == SortViewCount {
		sort.SliceStable(out, func(i, j int) bool { return out[i].ViewCount > out[j].ViewCount })
	}
	return out, len(out), nil
}

func (m *memRepo) Trending(_ context.Context, _ shared.ListParams, since *time.Time) ([]Post, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Post
	for _, p := range m.all() {
		if p.Status != StatusPublished || (since != nil && p.CreatedAt.Before(*since)) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ViewCount > out[j].ViewCount })
	return out, len(out), nil
}

func (m *memRepo) Nearby(_ context.Context, origin Post, delta float64, limit int) ([]Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Post{}
	for _, p := range m.all() {
		if p.ID == origin.ID || p.Status != StatusPublished || p.Latitude == nil || p.Longitude == nil {
			continue
		}
		if *p.Latitude < *origin.Latitude-delta || *p.Latitude > *origin.Latitude+delta {
			continue
		}
		if *p.Longitude < *origin.Longitude-delta || *p.Longitude > *origin.Longitude+delta {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memRepo) Get(_ context.Context, id uuid.UUID) (Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return Post{}, fmt.Errorf("%w: post not found", shared.ErrNotFound)
	}
	return m.withTags(p), nil
}

func (m *memRepo) GetBySlug(_ context.Context, slug string) (Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.posts {
		if p.Slug == slug {
			return m.withTags(p), nil
		}
	}
	return Post{}, fmt.Errorf("%w: post not found", shared.ErrNotFound)
}

func (m *memRepo) Create(_ context.Context, p Post, tagIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.posts {
		if existing.Slug == p.Slug {
			return fmt.Errorf("%w: post already exists", shared.ErrDuplicate)
		}
	}
	p.UpdatedAt = p.CreatedAt
	m.posts[p.ID] = p
	m.tags[p.ID] = tagIDs
	m.order = append(m.order, p.ID)
	return nil
}

func (m *memRepo) Update(_ context.Context, p Post, tagIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.posts[p.ID]
	if !ok {
		return fmt.Errorf("%w: post not found", shared.ErrNotFound)
	}
	p.Author = existing.Author
	p.ViewCount = existing.ViewCount
	p.CreatedAt = existing.CreatedAt
	m.posts[p.ID] = p
	if tagIDs != nil {
		m.tags[p.ID] = tagIDs
	}
	return nil
}

func (m *memRepo) SetStatus(_ context.Context, id uuid.UUID, status string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return fmt.Errorf("%w: post not found", shared.ErrNotFound)
	}
	p.Status = status
	if status == StatusPublished && p.PublishedAt == nil {
		p.PublishedAt = &at
	}
	p.UpdatedAt = at
	m.posts[id] = p
	return nil
}

func (m *memRepo) IncrementViews(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return fmt.Errorf("%w: post not found", shared.ErrNotFound)
	}
	p.ViewCount++
	m.posts[id] = p
	return nil
}

func (m *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return fmt.Errorf("%w: post not found", shared.ErrNotFound)
	}
	delete(m.posts, id)
	return nil
}

func (m *memRepo) BulkDelete(_ context.Context, ids []uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := m.posts[id]; ok {
			delete(m.posts, id)
			n++
		}
	}
	return n, nil
}

type viewSpy struct {
	mu  sync.Mutex
	ids []uuid.UUID
	err error
}

func (v *viewSpy) RecordView(_ context.Context, id uuid.UUID) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.err != nil {
		return v.err
	}
	v.ids = append(v.ids, id)
	return nil
}

func (v *viewSpy) count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.ids)
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(repo *memRepo, views ViewRecorder) *Service {
	svc := NewService(repo, views, nil, nil)
	svc.now = func() time.Time { return testNow }
	return svc
}

func floatPtr(v float64) *float64 { return &v }
