package domain

import "time"

// User is owned by the identity layer. PreferredLanguage is chosen at signup
// and immutable afterwards; the delivery pipeline only reads it.
type User struct {
	ID                string
	Email             string
	PreferredLanguage LocaleCode
	Roles             []string
	CreatedAt         time.Time
}
