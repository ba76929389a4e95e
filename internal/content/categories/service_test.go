package categories

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paisaid/paisaid-cms/internal/shared"
)

type fakeRepo struct {
	items  map[int64]Category
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: map[int64]Category{}}
}

func (f *fakeRepo) List(_ context.Context, _ shared.ListParams, filter Filter) ([]Category, int, error) {
	var out []Category
	for id := int64(1); id <= f.nextID; id++ {
		c, ok := f.items[id]
		if !ok {
			continue
		}
		if filter.TopLevel && c.ParentID != nil {
			continue
		}
		if filter.ParentID > 0 && (c.ParentID == nil || *c.ParentID != filter.ParentID) {
			continue
		}
		out = append(out, c)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Get(_ context.Context, id int64, _ bool) (Category, error) {
	c, ok := f.items[id]
	if !ok {
		return Category{}, fmt.Errorf("%w: category not found", shared.ErrNotFound)
	}
	for _, child := range f.items {
		if child.ParentID != nil && *child.ParentID == id {
			c.Children = append(c.Children, Ref{ID: child.ID, Name: child.Name, Slug: child.Slug})
		}
	}
	return c, nil
}

func (f *fakeRepo) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := f.items[id]
	return ok, nil
}

func (f *fakeRepo) Create(_ context.Context, c Category) (int64, error) {
	for _, existing := range f.items {
		if existing.Name == c.Name {
			return 0, fmt.Errorf("%w: category already exists", shared.ErrDuplicate)
		}
	}
	f.nextID++
	c.ID = f.nextID
	f.items[c.ID] = c
	return c.ID, nil
}

func (f *fakeRepo) Update(_ context.Context, c Category) error {
	existing, ok := f.items[c.ID]
	if !ok {
		return fmt.Errorf("%w: category not found", shared.ErrNotFound)
	}
	c.PostCount = existing.PostCount
	f.items[c.ID] = c
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return fmt.Errorf("%w: category not found", shared.ErrNotFound)
	}
	delete(f.items, id)
	return nil
}

func ptr[T any](v T) *T { return &v }

func TestCreateCategory(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, nil)
	ctx := context.Background()

	c, err := svc.Create(ctx, 1, CategoryInput{Name: " Café Bars "})
	require.NoError(t, err)
	assert.Equal(t, "Café Bars", c.Name)
	assert.Equal(t, "cafe-bars", c.Slug)
	assert.True(t, c.IsActive)

	_, err = svc.Create(ctx, 1, CategoryInput{Name: "Café Bars"})
	require.ErrorIs(t, err, shared.ErrDuplicate)

	_, err = svc.Create(ctx, 1, CategoryInput{Name: "Orphan", ParentID: ptr(int64(42))})
	require.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, "Parent category not found", shared.UserSafeMessage(err))

	_, err = svc.Create(ctx, 1, CategoryInput{Name: "  "})
	require.ErrorIs(t, err, shared.ErrValidation)

	child, err := svc.Create(ctx, 1, CategoryInput{Name: "Rooftop", ParentID: ptr(c.ID)})
	require.NoError(t, err)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, c.ID, *child.ParentID)
}

func TestUpdateCategoryRejectsSelfParent(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, nil)
	ctx := context.Background()

	c, err := svc.Create(ctx, 1, CategoryInput{Name: "Food"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, 1, c.ID, CategoryInput{Name: "Food", ParentID: ptr(c.ID)})
	require.ErrorIs(t, err, shared.ErrValidation)

	inactive := false
	updated, err := svc.Update(ctx, 1, c.ID, CategoryInput{Name: "Food & Drink", IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "food-drink", updated.Slug)
	assert.False(t, updated.IsActive)

	_, err = svc.Update(ctx, 1, 99, CategoryInput{Name: "Ghost"})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteCategoryGuards(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	parent, err := svc.Create(ctx, 1, CategoryInput{Name: "Travel"})
	require.NoError(t, err)
	child, err := svc.Create(ctx, 1, CategoryInput{Name: "Hotels", ParentID: ptr(parent.ID)})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, 1, parent.ID), shared.ErrConflict)

	withPosts := repo.items[child.ID]
	withPosts.PostCount = 3
	repo.items[child.ID] = withPosts
	err = svc.Delete(ctx, 1, child.ID)
	require.ErrorIs(t, err, shared.ErrConflict)
	assert.Equal(t, "Cannot delete category with associated posts", shared.UserSafeMessage(err))

	withPosts.PostCount = 0
	repo.items[child.ID] = withPosts
	require.NoError(t, svc.Delete(ctx, 1, child.ID))
	require.NoError(t, svc.Delete(ctx, 1, parent.ID))
	require.ErrorIs(t, svc.Delete(ctx, 1, parent.ID), shared.ErrNotFound)
}
