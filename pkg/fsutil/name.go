package fsutil

import "strings"

// SafeName maps an identifier to a filesystem-safe form: anything outside
// [A-Za-z0-9_-] becomes an underscore.
func SafeName(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}
