package util

import "strings"

// MaskSecret deja ver solo los extremos de un secreto ("eyJh…k9Qw"), lo
// justo para distinguir credenciales en logs o en la salida de relayctl.
func MaskSecret(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return ""
	case len(s) <= 12:
		return "***"
	}
	return s[:4] + "…" + s[len(s)-4:]
}
