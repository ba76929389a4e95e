package auth

import (
	"time"

	"github.com/paisaid/paisaid-cms/internal/shared"
)

// Cookie names used by the session flow.
const (
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"
)

// User is the credential record consulted during sign-in.
type User struct {
	ID           int64
	Username     string
	Name         string
	Email        string
	PasswordHash string
	IsActive     bool
	RoleID       int64
	RoleName     string
	RoleSlug     string
	IsSuperRole  bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
}

// Principal returns the token identity for the user.
func (u User) Principal() shared.Principal {
	return shared.Principal{UserID: u.ID, RoleID: u.RoleID, Role: u.RoleSlug}
}

// MenuItem is a navigation entry granted to a role.
type MenuItem struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Path     string `json:"path,omitempty"`
	Icon     string `json:"icon,omitempty"`
	ParentID *int64 `json:"parentId"`
	Order    int    `json:"order"`
}

// SignInProfile is returned to the client after a successful sign-in.
type SignInProfile struct {
	Username  string     `json:"username"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	MenuItems []MenuItem `json:"menuItems"`
}

// Profile is the authenticated user's view of their own account.
type Profile struct {
	ID          int64       `json:"id"`
	Username    string      `json:"username"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	IsActive    bool        `json:"isActive"`
	LastLoginAt *time.Time  `json:"lastLoginAt"`
	CreatedAt   time.Time   `json:"createdAt"`
	Role        ProfileRole `json:"role"`
}

// ProfileRole is the role block embedded in Profile.
type ProfileRole struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
