package types

// MismatchRecord is an account whose observed client version differs from the
// recommended version for its product family, with resolved contact info.
type MismatchRecord struct {
	JoinKey            string  `json:"join_key"`
	ClientIdentifier   string  `json:"client_identifier"`
	UserName           string  `json:"user_name"`
	Email              *string `json:"email"`
	ObservedVersion    string  `json:"observed_version"`
	RecommendedVersion string  `json:"recommended_version"`
}

// HasEmail reports whether the record carries a usable contact address.
func (m MismatchRecord) HasEmail() bool {
	return m.Email != nil && *m.Email != ""
}
