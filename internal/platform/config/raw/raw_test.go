package raw

import "testing"

func TestPrefixedLookups(t *testing.T) {
	t.Setenv("T_RAW_LEVEL", "  info ")
	t.Setenv("T_RAW_CALLER", "1")
	t.Setenv("T_RAW_BAD_BOOL", "yes please")
	t.Setenv("T_RAW_EVERY", "5")
	t.Setenv("T_RAW_NEG", "-3")
	t.Setenv("T_RAW_BLANK", "   ")

	c := New().Prefix("T_").Prefix("RAW_")

	if got := c.String("LEVEL", "debug"); got != "info" {
		t.Fatalf("LEVEL=%q", got)
	}
	if got := c.String("BLANK", "def"); got != "def" {
		t.Fatalf("BLANK=%q", got)
	}
	if _, ok := c.Lookup("UNSET"); ok {
		t.Fatalf("UNSET reported present")
	}
	if !c.Bool("CALLER", false) || !c.Bool("BAD_BOOL", true) || c.Bool("BAD_BOOL", false) {
		t.Fatalf("bool fallbacks")
	}
	if c.Int("EVERY", 0) != 5 || c.Int("NEG", 9) != 9 || c.Int("UNSET", 2) != 2 {
		t.Fatalf("int fallbacks")
	}
}
