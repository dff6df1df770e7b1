package users

import "context"

// Repo is the user directory. GetByEmail and GetByID return a NotFoundError
// wrapping errors.ErrUserNotFound when no user matches.
type Repo interface {
	Upsert(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, offset, limit int) ([]*User, error)
}
