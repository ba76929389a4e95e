package users

import "time"

// Gender values accepted for a user.
const (
	GenderMale   = "MALE"
	GenderFemale = "FEMALE"
	GenderOther  = "OTHER"
)

// User is a CMS account as shown to administrators. The password hash never
// leaves the repository.
type User struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Name        string     `json:"name"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone"`
	Address     string     `json:"address,omitempty"`
	Gender      string     `json:"gender"`
	DOB         *time.Time `json:"dob"`
	IsActive    bool       `json:"isActive"`
	Role        RoleRef    `json:"role"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// RoleRef is the role summary embedded in a user.
type RoleRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UserInput is the payload accepted by create and edit. Password is required
// on create and optional on edit.
type UserInput struct {
	Username string `json:"username" validate:"required,max=255"`
	Password string `json:"password" validate:"omitempty,min=8,max=200"`
	Name     string `json:"name" validate:"max=255"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
	Phone    string `json:"phone" validate:"max=255"`
	Address  string `json:"address" validate:"max=1000"`
	DOB      string `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	Gender   string `json:"gender" validate:"omitempty,oneof=male female other MALE FEMALE OTHER"`
	RoleID   int64  `json:"roleId" validate:"required,gt=0"`
	IsActive *bool  `json:"isActive"`
}
