// internal/platform/config/config_test.go
package config

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"wlmerge/internal/platform/logger"
	kit "wlmerge/internal/platform/testkit"

	"github.com/rs/zerolog"
)

func captureWarnings(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	kit.Swap(t, logger.Get(), zerolog.New(&buf))
	return &buf
}

func TestPrefixNests(t *testing.T) {
	c := New().Prefix("CORE_").Prefix("MERGE_")
	if got := c.key("WORKERS"); got != "CORE_MERGE_WORKERS" {
		t.Fatalf("key=%q", got)
	}
}

func TestMayString(t *testing.T) {
	c := New().Prefix("T_CFG_")
	t.Setenv("T_CFG_NAME", "  wlmerge ")
	t.Setenv("T_CFG_BLANK", "   ")
	if got := c.MayString("NAME", "x"); got != "wlmerge" {
		t.Fatalf("NAME=%q", got)
	}
	if got := c.MayString("BLANK", "def"); got != "def" {
		t.Fatalf("BLANK=%q", got)
	}
	if got := c.MayString("UNSET", "def"); got != "def" {
		t.Fatalf("UNSET=%q", got)
	}
}

func TestMayTyped_ParseAndFallback(t *testing.T) {
	buf := captureWarnings(t)
	c := New().Prefix("T_CFG_")
	t.Setenv("T_CFG_WORKERS", " 8 ")
	t.Setenv("T_CFG_BAD_INT", "eight")
	t.Setenv("T_CFG_ON", "true")
	t.Setenv("T_CFG_BAD_BOOL", "sure")
	t.Setenv("T_CFG_WAIT", "250ms")
	t.Setenv("T_CFG_BAD_WAIT", "soon")

	if got := c.MayInt("WORKERS", 1); got != 8 {
		t.Fatalf("WORKERS=%d", got)
	}
	if got := c.MayInt("BAD_INT", 3); got != 3 {
		t.Fatalf("BAD_INT=%d", got)
	}
	if !c.MayBool("ON", false) || c.MayBool("BAD_BOOL", false) {
		t.Fatalf("bool parsing")
	}
	if got := c.MayDuration("WAIT", time.Second); got != 250*time.Millisecond {
		t.Fatalf("WAIT=%v", got)
	}
	if got := c.MayDuration("BAD_WAIT", time.Second); got != time.Second {
		t.Fatalf("BAD_WAIT=%v", got)
	}

	out := buf.String()
	for _, k := range []string{"T_CFG_BAD_INT", "T_CFG_BAD_BOOL", "T_CFG_BAD_WAIT"} {
		kit.MustContain(t, out, k)
	}
	kit.MustNotContain(t, out, "T_CFG_WORKERS")
}

func TestMayCSV(t *testing.T) {
	c := New().Prefix("T_CFG_")
	t.Setenv("T_CFG_LIST", " a, ,b ,c,")
	t.Setenv("T_CFG_COMMAS", " , ,")

	got := c.MayCSV("LIST", nil)
	if strings.Join(got, "|") != "a|b|c" {
		t.Fatalf("LIST=%q", got)
	}
	def := []string{"x"}
	if got := c.MayCSV("COMMAS", def); len(got) != 1 || got[0] != "x" {
		t.Fatalf("COMMAS=%q", got)
	}
	if got := c.MayCSV("UNSET", def); len(got) != 1 {
		t.Fatalf("UNSET=%q", got)
	}
}

func TestMaySize(t *testing.T) {
	captureWarnings(t)
	c := New().Prefix("T_SZ_")
	cases := []struct {
		val  string
		want int64
	}{
		{"4096", 4096},
		{"32MiB", 32 << 20},
		{"500 KB", 500_000},
		{"1GiB", 1 << 30},
		{"0", 7},
		{"-5MB", 7},
		{"lots", 7},
	}
	for _, tc := range cases {
		t.Setenv("T_SZ_MAX", tc.val)
		if got := c.MaySize("MAX", 7); got != tc.want {
			t.Fatalf("MaySize(%q)=%d want %d", tc.val, got, tc.want)
		}
	}
}
