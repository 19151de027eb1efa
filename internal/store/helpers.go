package store

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

// isUniqueViolation reports whether a database error is a unique-constraint
// violation, for either backend.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
