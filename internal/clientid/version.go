// Package clientid extracts join keys and version tokens from free-form client
// identifier strings such as "JDBC 3.13.30" or "Go 1.9.0".
package clientid

import (
	"encoding/json"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NoVersion is the rendering of an identifier whose version could not be determined.
const NoVersion = "No version"

// Version is the outcome of parsing a client identifier: either a parsed version
// token or the unparsed variant. The zero value is unparsed.
type Version struct {
	value  string
	parsed bool
}

// Parsed returns a Version holding v.
func Parsed(v string) Version {
	return Version{value: v, parsed: true}
}

// Unparsed returns the Version used when no version token could be extracted.
func Unparsed() Version {
	return Version{}
}

// IsParsed reports whether a version token was extracted.
func (v Version) IsParsed() bool {
	return v.parsed
}

// String renders the version for comparison and display. The unparsed variant
// renders as NoVersion.
func (v Version) String() string {
	if !v.parsed {
		return NoVersion
	}
	return v.value
}

// MarshalJSON encodes the version as its string rendering.
func (v Version) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// ParseVersion extracts the version token from a client identifier.
// The candidate is the segment after the last whitespace boundary; it is accepted
// only if it contains at least one decimal digit. A nil identifier, an identifier
// without a digit-bearing trailing segment, or any failure while parsing yields
// the unparsed variant.
func ParseVersion(id *string) (v Version) {
	if id == nil {
		return Unparsed()
	}

	defer func() {
		if r := recover(); r != nil {
			v = Unparsed()
		}
	}()

	candidate := lastSegment(*id)
	if !containsDigit(candidate) {
		return Unparsed()
	}
	return Parsed(candidate)
}

// JoinKey returns the first whitespace-delimited token of s, or "" if s has none.
func JoinKey(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// lastSegment splits on the last whitespace boundary and returns the trailing part.
// A string without whitespace is returned whole.
func lastSegment(s string) string {
	idx := strings.LastIndexFunc(s, unicode.IsSpace)
	if idx < 0 {
		return s
	}
	_, size := utf8.DecodeRuneInString(s[idx:])
	return s[idx+size:]
}

func containsDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}
