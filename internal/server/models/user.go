package models

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	Name         string
	CreatedAt    time.Time
}

// Token is a signed bearer credential and the moment it stops being accepted.
type Token struct {
	Value     string
	ExpiresAt time.Time
}
