package domain

import "time"

type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	IsVendor     bool
	CreatedAt    time.Time
}
