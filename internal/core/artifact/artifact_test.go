// internal/core/artifact/artifact_test.go
package artifact

import (
	"strings"
	"testing"
	"time"
)

func TestRender_Header(t *testing.T) {
	msk := time.FixedZone("MSK", 3*3600)
	at := time.Date(2026, 10, 16, 6, 5, 0, 0, time.UTC).In(msk)

	out := string(Render(Header{Title: TitleAll, UpdatedAt: at}, []string{"vless://a@1.1.1.1:1#x", "bad\xffbyte"}))

	want := "#profile-title: WL RUS (all)\n" +
		"#profile-update-interval: 24\n" +
		"#announce: " + DefaultAnnounce + "\n" +
		"# Обновлено: 09:05 | 16.10.2026\n" +
		"# Всего конфигов: 2\n" +
		strings.Repeat("#", 50) + "\n\n" +
		"vless://a@1.1.1.1:1#x\n" +
		"bad\uFFFDbyte\n"
	if out != want {
		t.Fatalf("Render =\n%s\nwant\n%s", out, want)
	}
}

func TestRender_CustomHeader(t *testing.T) {
	out := string(Render(Header{Title: TitleWhitelist, UpdateInterval: 6, Announce: "hi"}, nil))
	if !strings.HasPrefix(out, "#profile-title: WL RUS (wl.txt)\n#profile-update-interval: 6\n#announce: hi\n") {
		t.Fatalf("header %q", out)
	}
	if !strings.Contains(out, "# Всего конфигов: 0\n") {
		t.Fatalf("count missing: %q", out)
	}
}

func TestBody(t *testing.T) {
	content := Render(Header{Title: TitleAll}, []string{"one@h:1:2", "two@h:1:2"})
	got := Body(content)
	if len(got) != 2 || got[0] != "one@h:1:2" || got[1] != "two@h:1:2" {
		t.Fatalf("Body = %q", got)
	}
}

func TestParseCurated(t *testing.T) {
	in := strings.Join([]string{
		"#profile-title: WL RUS (selected)",
		"#profile-update-interval: 24",
		"#announce: old",
		"",
		"# keep: fast nodes",
		"",
		"",
		"# second note",
		"vless://u@1.2.3.4:443#a",
		"",
		"not a descriptor",
		"trojan://p@5.6.7.8:443#b",
		"",
	}, "\n")

	c := ParseCurated(in)
	wantComments := []string{"# keep: fast nodes", "", "# second note"}
	if strings.Join(c.Comments, "|") != strings.Join(wantComments, "|") {
		t.Fatalf("comments %q", c.Comments)
	}
	if len(c.Lines) != 2 || c.Lines[0] != "vless://u@1.2.3.4:443#a" || c.Lines[1] != "trojan://p@5.6.7.8:443#b" {
		t.Fatalf("lines %q", c.Lines)
	}
}

func TestParseCurated_HeaderEndsAtFirstOtherLine(t *testing.T) {
	in := "#profile-title: WL RUS (selected)\n#announce: x\nvless://u@h.example:1#n\n# after\n"
	c := ParseCurated(in)
	if len(c.Lines) != 1 {
		t.Fatalf("lines %q", c.Lines)
	}
	if len(c.Comments) != 1 || c.Comments[0] != "# after" {
		t.Fatalf("comments %q", c.Comments)
	}
}

func TestRenderCurated_RoundTrip(t *testing.T) {
	comments := []string{"# keep", "", "# note"}
	lines := []string{"vless://u@1.2.3.4:443#1", "trojan://p@5.6.7.8:443#2"}

	out := string(RenderCurated(Header{}, comments, lines))
	want := "#profile-title: WL RUS (selected)\n" +
		"#profile-update-interval: 24\n" +
		"#announce: " + DefaultAnnounce + "\n" +
		"\n# keep\n\n# note\n" +
		"\n" +
		"vless://u@1.2.3.4:443#1\n\ntrojan://p@5.6.7.8:443#2\n"
	if out != want {
		t.Fatalf("RenderCurated =\n%q\nwant\n%q", out, want)
	}

	back := ParseCurated(out)
	if strings.Join(back.Comments, "|") != strings.Join(comments, "|") {
		t.Fatalf("comments did not survive: %q", back.Comments)
	}
	if strings.Join(back.Lines, "|") != strings.Join(lines, "|") {
		t.Fatalf("lines did not survive: %q", back.Lines)
	}
}

func TestStamp(t *testing.T) {
	at := time.Date(2026, 10, 16, 6, 5, 0, 0, time.UTC)
	got, ok := Stamp(Render(Header{Title: TitleAll, UpdatedAt: at}, []string{"a@b:1:2"}))
	if !ok || got != "06:05 | 16.10.2026" {
		t.Fatalf("Stamp = %q %v", got, ok)
	}
	if _, ok := Stamp([]byte("vless://x@h:1\n# Обновлено: 1\n")); ok {
		t.Fatalf("stamp after the header must be ignored")
	}
}
