package pg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestCompact(t *testing.T) {
	cases := [][2]string{
		{"select 1", "select 1"},
		{"  select   1  ", "select 1"},
		{"SELECT\t*\nFROM\r\tt  a", "SELECT * FROM t a"},
		{"", ""},
		{"\n\n", ""},
	}
	for _, c := range cases {
		in, want := c[0], c[1]
		if got := compact(in); got != want {
			t.Fatalf("compact(%q)=%q want %q", in, got, want)
		}
	}
}

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, ln := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(ln) == 0 {
			continue
		}
		m := map[string]any{}
		if err := json.Unmarshal(ln, &m); err != nil {
			t.Fatalf("bad log line %q: %v", ln, err)
		}
		out = append(out, m)
	}
	return out
}

func TestTracer_Levels(t *testing.T) {
	var buf bytes.Buffer
	// root is at warn; the tracer must still emit debug lines
	tr := Tracer(zerolog.New(&buf).Level(zerolog.WarnLevel))
	ctx := context.Background()

	tr.OnQuery(ctx, QueryEvent{SQL: "SELECT\n 1", Elapsed: time.Millisecond})
	tr.OnQuery(ctx, QueryEvent{SQL: "SELECT 2", Args: []any{1, 2}, Slow: true})
	tr.OnQuery(ctx, QueryEvent{SQL: "SELECT 3", Err: errors.New("nope"), Slow: true})

	got := lines(t, &buf)
	if len(got) != 3 {
		t.Fatalf("want 3 lines, got %d: %s", len(got), buf.String())
	}
	want := []string{"debug", "warn", "error"}
	for i, w := range want {
		if got[i]["level"] != w {
			t.Fatalf("line %d level=%v want %s", i, got[i]["level"], w)
		}
		if got[i]["component"] != "pg" || got[i]["message"] != "pg query" {
			t.Fatalf("line %d fields %v", i, got[i])
		}
	}
	if got[0]["sql"] != "SELECT 1" {
		t.Fatalf("sql not compacted: %v", got[0]["sql"])
	}
	if got[1]["args"] != float64(2) {
		t.Fatalf("args=%v", got[1]["args"])
	}
	if got[2]["error"] != "nope" {
		t.Fatalf("error=%v", got[2]["error"])
	}
}
