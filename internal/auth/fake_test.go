package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/paisaid/paisaid-cms/internal/shared"
)

type memRepo struct {
	mu        sync.Mutex
	users     map[string]*User
	roleMenus map[int64][]MenuItem
	allMenus  []MenuItem
	lastLogin map[int64]time.Time
	updateErr error
	menuErr   error
	findErr   error
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:     map[string]*User{},
		roleMenus: map[int64][]MenuItem{},
		lastLogin: map[int64]time.Time{},
	}
}

func (m *memRepo) addUser(t *testing.T, u User, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u.PasswordHash = string(hash)
	m.users[u.Username] = &u
}

func (m *memRepo) FindByUsername(_ context.Context, username string) (*User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	u, ok := m.users[username]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (m *memRepo) FindByID(_ context.Context, id int64) (*User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memRepo) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	m.lastLogin[id] = at
	return nil
}

func (m *memRepo) ListRoleMenus(_ context.Context, roleID int64) ([]MenuItem, error) {
	if m.menuErr != nil {
		return nil, m.menuErr
	}
	return m.roleMenus[roleID], nil
}

func (m *memRepo) ListAllMenus(context.Context) ([]MenuItem, error) {
	if m.menuErr != nil {
		return nil, m.menuErr
	}
	return m.allMenus, nil
}

type auditSpy struct {
	mu      sync.Mutex
	actions []string
	err     error
}

func (a *auditSpy) Record(_ context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, log.Action)
	return a.err
}

var errStoreDown = errors.New("store unavailable")

// seededRepo holds an editor "bob" and an admin "root", both with password "s3cret!".
func seededRepo(t *testing.T) *memRepo {
	t.Helper()
	repo := newMemRepo()
	repo.addUser(t, User{ID: 10, Username: "bob", Name: "Bob", RoleID: 2, RoleName: "Editor", RoleSlug: "editor", IsActive: true}, "s3cret!")
	repo.addUser(t, User{ID: 1, Username: "root", Name: "Root", RoleID: 1, RoleName: "Admin", RoleSlug: "admin", IsSuperRole: true, IsActive: true}, "s3cret!")
	repo.roleMenus[2] = []MenuItem{{ID: 3, Name: "Posts", Slug: "posts", Order: 1}}
	repo.allMenus = []MenuItem{
		{ID: 1, Name: "Dashboard", Slug: "dashboard"},
		{ID: 3, Name: "Posts", Slug: "posts", Order: 1},
		{ID: 4, Name: "Users", Slug: "users", Order: 2},
	}
	return repo
}
