package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// RoleType is the closed set of user roles.
type RoleType string

const (
	RoleAdmin  RoleType = "admin"  // Can act on any user and reach admin routes
	RoleMember RoleType = "member" // Can act on their own record only
)

// ParseRole maps a stored or submitted role name onto a RoleType.
func ParseRole(role string) (RoleType, error) {
	switch RoleType(strings.ToLower(strings.TrimSpace(role))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleMember, "":
		return RoleMember, nil
	}
	return "", fmt.Errorf("unknown role %q", role)
}

func (r RoleType) String() string {
	return string(r)
}

type User struct {
	ID           string    `json:"id,omitempty"`         // Unique identifier for the user
	Email        string    `json:"email,omitempty"`      // Login name
	PasswordHash string    `json:"-"`                    // bcrypt hash - never serialize
	FirstName    string    `json:"first_name,omitempty"` // First name of the user
	LastName     string    `json:"last_name,omitempty"`  // Last name of the user
	Role         RoleType  `json:"role,omitempty"`       // admin or member
	CreatedAt    time.Time `json:"created_at,omitempty"` // Date and time when the user registered
}

// IsAdmin returns true if the user holds the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

// HashPasswordWithCost hashes with an explicit bcrypt cost. Out of range costs
// fall back to bcrypt.DefaultCost.
func HashPasswordWithCost(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

// CheckPasswordHash compares a presented secret with a stored bcrypt hash.
// It returns false when either value is empty.
func CheckPasswordHash(password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
