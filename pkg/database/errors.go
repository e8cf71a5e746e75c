package database

import "strings"

// IsUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY
// constraint rejecting an insert. Both sqlite drivers only expose this through
// the error text.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed") ||
		strings.Contains(msg, "SQLITE_CONSTRAINT_UNIQUE") ||
		strings.Contains(msg, "SQLITE_CONSTRAINT_PRIMARYKEY") ||
		strings.Contains(msg, "(2067)") ||
		strings.Contains(msg, "(1555)")
}
