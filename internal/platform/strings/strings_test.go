package strings

import (
	"testing"

	kit "wlmerge/internal/platform/testkit"
)

func TestMustString(t *testing.T) {
	if got := MustString(" runs ", "name"); got != " runs " {
		t.Fatalf("got %q", got)
	}
	kit.MustPanic(t, func() { MustString("  ", "module name") }, "module name is required")
}

func TestMustPrefix(t *testing.T) {
	for in, want := range map[string]string{
		"runs":         "/runs",
		"/runs/":       "/runs",
		"  //meta// ":  "/meta",
		"/api/v1/runs": "/api/v1/runs",
	} {
		if got := MustPrefix(in); got != want {
			t.Fatalf("MustPrefix(%q)=%q want %q", in, got, want)
		}
	}
	kit.MustPanic(t, func() { MustPrefix("/") }, "route prefix")
	kit.MustPanic(t, func() { MustPrefix("   ") }, "route prefix")
}
