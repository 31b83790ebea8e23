package auth

import "time"

// User is an account able to sign in
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
