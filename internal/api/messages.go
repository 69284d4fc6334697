package api

import "time"

// Reminder is the wire form of a reminder record.
type Reminder struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Enabled   bool      `json:"enabled"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Salt     []byte `json:"salt"`
	Verifier []byte `json:"verifier"`
}

type RegisterResponse struct {
	UserID string `json:"userId"`
}

type GetSaltRequest struct {
	Username string `json:"username"`
}

type GetSaltResponse struct {
	Salt []byte `json:"salt"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Verifier []byte `json:"verifier"`
}

type LoginResponse struct {
	UserID       string `json:"userId"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// ListRequest asks for the caller's collection. LastSync is only filled in
// the response when IncludeLastSync is set.
type ListRequest struct {
	IncludeLastSync bool `json:"includeLastSync"`
}

type ListResponse struct {
	Reminders []Reminder `json:"reminders"`
	LastSync  *time.Time `json:"lastSync"`
}

// ReminderRequest carries the payload of add and change.
type ReminderRequest struct {
	Reminder Reminder `json:"reminder"`
}

type DeleteRequest struct {
	ID string `json:"id"`
}

// MutationResponse is returned by add, change and delete. Result is the
// record as stored (for delete, as it was before removal).
type MutationResponse struct {
	Result   Reminder  `json:"result"`
	LastSync time.Time `json:"lastSync"`
}

type ResetRequest struct {
	Reminders []Reminder `json:"reminders"`
}

type ResetResult struct {
	Deleted    int    `json:"deleted"`
	Inserted   int    `json:"inserted"`
	ArchiveKey string `json:"archiveKey,omitempty"`
}

type ResetResponse struct {
	Result   ResetResult `json:"result"`
	LastSync time.Time   `json:"lastSync"`
}
