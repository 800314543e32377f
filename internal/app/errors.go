package app

import "fmt"

// DomainError carries an HTTP status and stable code through the service
// layer so the boundary can map it without string matching.
type DomainError struct {
	Status  int
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
