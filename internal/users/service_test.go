package users

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/paisaid/paisaid-cms/internal/shared"
)

type fakeRepo struct {
	users  map[int64]User
	hashes map[int64]string
	roles  map[int64]string
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:  map[int64]User{},
		hashes: map[int64]string{},
		roles:  map[int64]string{1: "admin", 2: "editor"},
	}
}

func (f *fakeRepo) List(_ context.Context, _ shared.ListParams) ([]User, int, error) {
	out := make([]User, 0, len(f.users))
	for id := int64(1); id <= f.nextID; id++ {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, len(out), nil
}

func (f *fakeRepo) Get(_ context.Context, id int64) (User, error) {
	u, ok := f.users[id]
	if !ok {
		return User{}, fmt.Errorf("%w: user not found", shared.ErrNotFound)
	}
	return u, nil
}

func (f *fakeRepo) RoleExists(_ context.Context, roleID int64) (bool, error) {
	_, ok := f.roles[roleID]
	return ok, nil
}

func (f *fakeRepo) Create(_ context.Context, u User, hash string) (int64, error) {
	for _, existing := range f.users {
		if existing.Username == u.Username {
			return 0, fmt.Errorf("%w: user already exists", shared.ErrDuplicate)
		}
	}
	f.nextID++
	u.ID = f.nextID
	u.Role.Name = f.roles[u.Role.ID]
	f.users[u.ID] = u
	f.hashes[u.ID] = hash
	return u.ID, nil
}

func (f *fakeRepo) Update(_ context.Context, u User, hash string) error {
	if _, ok := f.users[u.ID]; !ok {
		return fmt.Errorf("%w: user not found", shared.ErrNotFound)
	}
	u.Role.Name = f.roles[u.Role.ID]
	f.users[u.ID] = u
	if hash != "" {
		f.hashes[u.ID] = hash
	}
	return nil
}

func (f *fakeRepo) SetPassword(_ context.Context, id int64, hash string, _ time.Time) error {
	if _, ok := f.users[id]; !ok {
		return fmt.Errorf("%w: user not found", shared.ErrNotFound)
	}
	f.hashes[id] = hash
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.users[id]; !ok {
		return fmt.Errorf("%w: user not found", shared.ErrNotFound)
	}
	delete(f.users, id)
	return nil
}

type countingInvalidator struct{ n atomic.Int64 }

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.n.Add(1)
	return nil
}

func newTestService(repo *fakeRepo, cache *countingInvalidator) *Service {
	return NewService(repo, cache, nil, nil, Config{DefaultPassword: "welcome-1", HashCost: bcrypt.MinCost})
}

func TestCreateUser(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &countingInvalidator{})
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, UserInput{Username: "bob", RoleID: 2})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, 1, UserInput{Username: "bob", Password: "password1", RoleID: 9})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, 1, UserInput{Username: "bob", Password: "password1", RoleID: 2, DOB: "1990-13-40"})
	require.ErrorIs(t, err, shared.ErrValidation)

	u, err := svc.Create(ctx, 1, UserInput{
		Username: " bob ",
		Password: "password1",
		Email:    "Bob@Example.com",
		Gender:   "female",
		DOB:      "1990-04-01",
		RoleID:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)
	assert.Equal(t, "bob@example.com", u.Email)
	assert.Equal(t, GenderFemale, u.Gender)
	assert.True(t, u.IsActive)
	assert.Equal(t, "editor", u.Role.Name)
	require.NotNil(t, u.DOB)
	assert.Equal(t, 1990, u.DOB.Year())
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.hashes[u.ID]), []byte("password1")))

	_, err = svc.Create(ctx, 1, UserInput{Username: "bob", Password: "password2", RoleID: 2})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestUpdateUserKeepsPasswordAndInvalidatesOnRoleChange(t *testing.T) {
	repo := newFakeRepo()
	cache := &countingInvalidator{}
	svc := newTestService(repo, cache)
	ctx := context.Background()

	u, err := svc.Create(ctx, 1, UserInput{Username: "bob", Password: "password1", RoleID: 2})
	require.NoError(t, err)
	original := repo.hashes[u.ID]

	_, err = svc.Update(ctx, 1, u.ID, UserInput{Username: "bob", Name: "Bob", RoleID: 2})
	require.NoError(t, err)
	assert.Equal(t, original, repo.hashes[u.ID])
	assert.Zero(t, cache.n.Load())

	updated, err := svc.Update(ctx, 1, u.ID, UserInput{Username: "bob", RoleID: 1, Password: "password2"})
	require.NoError(t, err)
	assert.Equal(t, "admin", updated.Role.Name)
	assert.EqualValues(t, 1, cache.n.Load())
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.hashes[u.ID]), []byte("password2")))

	_, err = svc.Update(ctx, 1, 99, UserInput{Username: "ghost", RoleID: 2})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestResetPassword(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	u, err := svc.Create(ctx, 1, UserInput{Username: "bob", Password: "password1", RoleID: 2})
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(ctx, 1, u.ID))
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.hashes[u.ID]), []byte("welcome-1")))
	require.ErrorIs(t, svc.ResetPassword(ctx, 1, 42), shared.ErrNotFound)

	unconfigured := NewService(repo, nil, nil, nil, Config{HashCost: bcrypt.MinCost})
	err = unconfigured.ResetPassword(ctx, 1, u.ID)
	require.Error(t, err)
	assert.False(t, errors.Is(err, shared.ErrNotFound))
}

func TestDeleteUser(t *testing.T) {
	repo := newFakeRepo()
	cache := &countingInvalidator{}
	svc := newTestService(repo, cache)
	ctx := context.Background()

	u, err := svc.Create(ctx, 1, UserInput{Username: "bob", Password: "password1", RoleID: 2})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, u.ID, u.ID), shared.ErrConflict)
	require.NoError(t, svc.Delete(ctx, 99, u.ID))
	assert.EqualValues(t, 1, cache.n.Load())
	require.ErrorIs(t, svc.Delete(ctx, 99, u.ID), shared.ErrNotFound)
}
