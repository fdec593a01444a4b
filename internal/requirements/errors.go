package requirements

import "fmt"

// SchemaError is returned when the scraped table lacks a required column or its
// Type column cannot be forward-filled.
type SchemaError struct {
	Column  string
	Row     int
	Message string
}

func (e *SchemaError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("schema error in column %q: %s", e.Column, e.Message)
	}
	return fmt.Sprintf("schema error: %s", e.Message)
}
