package domain

import "time"

// User is a staff member who logs in and owns tickets.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
