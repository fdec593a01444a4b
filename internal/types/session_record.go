package types

import "github.com/jonathan/version-auditor/internal/clientid"

// SessionRow is a raw (user, client identifier) pair as returned by a records provider.
// ClientIdentifier is nil when the store holds NULL.
type SessionRow struct {
	UserName         string  `json:"user_name"`
	ClientIdentifier *string `json:"client_identifier"`
}

// SessionRecord is a SessionRow with its derived join key and parsed version.
type SessionRecord struct {
	UserName         string           `json:"user_name"`
	ClientIdentifier *string          `json:"client_identifier"`
	JoinKey          string           `json:"join_key"`
	Version          clientid.Version `json:"version"`
}

// Identifier returns the client identifier, or "" when absent.
func (s SessionRecord) Identifier() string {
	if s.ClientIdentifier == nil {
		return ""
	}
	return *s.ClientIdentifier
}

// UserRecord is a directory entry used to resolve contact addresses.
type UserRecord struct {
	UserName string  `json:"user_name"`
	Email    *string `json:"email"`
}
