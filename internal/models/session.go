package models

import "time"

// Session is the server-side record behind a session token. The token
// itself is a signed JWT carrying the session ID; the record must also
// exist in the store for the token to be accepted.
type Session struct {
	ID           string    `json:"id" redis:"id"`
	Email        string    `json:"email" redis:"email"`
	CreatedAt    time.Time `json:"created_at" redis:"created_at"`
	LastAccessed time.Time `json:"last_accessed" redis:"last_accessed"`
}
