package models

import "regexp"

// Local part is alphanumeric with at most one "." or "_" separator, the
// domain alphanumeric, and the TLD two or three characters.
var emailRule = regexp.MustCompile(`^[a-z0-9]+[._]?[a-z0-9]+@\w+\.\w{2,3}$`)

// ValidEmail reports whether email has an acceptable shape
func ValidEmail(email string) bool {
	return emailRule.MatchString(email)
}
