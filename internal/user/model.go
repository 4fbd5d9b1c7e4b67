package user

import "time"

// User represents a registered account. ProviderID stays empty until phone
// verification succeeds and the provider-side identity has been created.
type User struct {
	ID             string
	Email          string
	PasswordHash   []byte
	Phone          string
	CountryCode    int
	NationalNumber string
	Verified       bool
	ProviderID     string
	CreatedAt      time.Time
}
