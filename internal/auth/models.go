package auth

import "strings"

// Requester is the authenticated principal resolved for a single request.
type Requester struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	AccountID string `json:"accountId"`
}

// IsZero reports whether no principal could be resolved.
func (r Requester) IsZero() bool {
	return strings.TrimSpace(r.ID) == ""
}
