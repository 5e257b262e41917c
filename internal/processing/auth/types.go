package auth

import "time"

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	ProfileImage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type SignupInput struct {
	Email        string
	Password     string
	Name         string
	ProfileImage string
}

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID    int64
	Email     string
	Token     string
	ExpiresAt time.Time
}
