// internal/core/exclude/exclude_test.go
package exclude

import "testing"

func TestDefaultPatterns(t *testing.T) {
	e := New(nil, false)

	reason, ok := e.Match("vless://x@01010101.example:443#n")
	if !ok || reason != "contains: 01010101" {
		t.Fatalf("expected default match, got %q %v", reason, ok)
	}

	clean := "vless://u@1.2.3.4:443?sni=a.com#ok"
	res := e.Filter([]string{clean})
	if len(res.Kept) != 1 || res.Kept[0] != clean || len(res.Excluded) != 0 {
		t.Fatalf("clean line must pass unchanged: %+v", res)
	}
}

func TestTypedPrefixes(t *testing.T) {
	e := New([]string{"#Promo", "@bad.host", "/ws-evil", "plain"}, false)

	tests := []struct {
		line   string
		reason string
		ok     bool
	}{
		{"vless://u@h:1#PROMO channel", "remark contains: #promo", true},
		{"vless://u@BAD.host:1#x", "address contains: @bad.host", true},
		{"vless://u@h:1?type=ws&path=/ws-evil#x", "path contains: /ws-evil", true},
		{"vless://u@h:1?type=ws&path%3D/ws-evil#x", "path contains: /ws-evil", true},
		{"vless://u@h:1?type=ws&PATH%3D/WS-EVIL#x", "path contains: /ws-evil", true},
		{"vless://u@h:1?type=ws&path=/ok#/ws-evil", "", false},
		{"vless://u@h:1#Plain text", "contains: plain", true},
		{"vless://u@h:1#fine", "", false},
	}
	for _, tt := range tests {
		reason, ok := e.Match(tt.line)
		if ok != tt.ok || reason != tt.reason {
			t.Fatalf("Match(%q) = %q,%v want %q,%v", tt.line, reason, ok, tt.reason, tt.ok)
		}
	}
}

func TestCaseSensitive(t *testing.T) {
	e := New([]string{"Secret"}, true)
	if _, ok := e.Match("line with secret"); ok {
		t.Fatalf("case sensitive must not match lower case")
	}
	if _, ok := e.Match("line with Secret"); !ok {
		t.Fatalf("exact case must match")
	}

	p := New([]string{"/Api"}, true)
	if _, ok := p.Match("x?path%3D/Api"); !ok {
		t.Fatalf("encoded path with upper escape must match")
	}
}

func TestFirstPatternWins(t *testing.T) {
	e := New([]string{"alpha", "beta"}, false)
	res := e.Filter([]string{"has beta and alpha", "only beta", "neither", "beta again"})

	if len(res.Kept) != 1 || res.Kept[0] != "neither" {
		t.Fatalf("kept %v", res.Kept)
	}
	if res.Excluded[0].Reason != "contains: alpha" {
		t.Fatalf("first line reason %q", res.Excluded[0].Reason)
	}
	want := []Stat{{"contains: alpha", 1}, {"contains: beta", 2}}
	if len(res.Stats) != len(want) {
		t.Fatalf("stats %v", res.Stats)
	}
	for i := range want {
		if res.Stats[i] != want[i] {
			t.Fatalf("stat[%d] = %+v want %+v", i, res.Stats[i], want[i])
		}
	}
	if got := res.Lines(); len(got) != 3 || got[0] != "has beta and alpha" {
		t.Fatalf("lines %v", got)
	}
}

func TestEmptyPatternsDisable(t *testing.T) {
	e := New([]string{}, false)
	res := e.Filter([]string{"01010101"})
	if len(res.Kept) != 1 {
		t.Fatalf("empty pattern list must keep everything")
	}
	if len(New([]string{" ", ""}, false).Patterns()) != 0 {
		t.Fatalf("blank patterns must be skipped")
	}
}

func TestKindString(t *testing.T) {
	if Compile("#x", false).Kind.String() != "remark" ||
		Compile("@x", false).Kind.String() != "address" ||
		Compile("/x", false).Kind.String() != "path" ||
		Compile("x", false).Kind.String() != "anywhere" {
		t.Fatalf("kind names mismatch")
	}
}
