package validation

import (
	"strings"
	"testing"
)

func TestValidEnvKey_Valid(t *testing.T) {
	for _, v := range []string{
		"DOORDASH_API_KEY",
		"_X",
		"a",
		"app.key",
		"K" + strings.Repeat("1", 127),
	} {
		if !ValidEnvKey(v) {
			t.Fatalf("expected valid: %q", v)
		}
	}
}

func TestValidEnvKey_Invalid(t *testing.T) {
	for _, v := range []string{
		"",
		"1KEY",
		"A B",
		"A=B",
		"KEY\n",
		`"KEY"`,
		"export",
		"K" + strings.Repeat("1", 128),
	} {
		if ValidEnvKey(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}
