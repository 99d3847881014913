package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleBoth   Role = "both"
)

func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleBoth:
		return true
	}
	return false
}

type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Pincode string `json:"pincode,omitempty"`
	Country string `json:"country,omitempty"`
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone,omitempty"`
	Role         Role      `json:"role"`
	Address      Address   `json:"address"`
	ProfileImage string    `json:"profile_image,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Validate normalizes email and role, then checks the account invariants.
func (u *User) Validate() error {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = RoleBoth
	}

	if n := len(u.Username); n < 3 || n > 30 {
		return fmt.Errorf("%w: username must be between 3 and 30 characters", ErrValidation)
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if !u.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, u.Role)
	}
	return nil
}
