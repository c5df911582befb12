package bind

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "wlmerge/internal/platform/errors"
)

type probe struct {
	IP    string   `json:"ip" validate:"required,ip4_addr"`
	Line  string   `json:"line,omitempty" validate:"omitempty,single_line,max=16"`
	Lines []string `json:"lines,omitempty" validate:"omitempty,max=2,dive,single_line"`
}

func req(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(body))
}

func TestParseJSON_OK(t *testing.T) {
	got, err := ParseJSON[probe](req(`{"ip":"95.163.1.10","line":"vless://a@b:1"}`))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if got.IP != "95.163.1.10" || got.Line != "vless://a@b:1" {
		t.Fatalf("got %+v", got)
	}
}

func TestParseJSON_JSONErrors(t *testing.T) {
	cases := map[string]string{
		"empty":    ``,
		"broken":   `{"ip":`,
		"unknown":  `{"ip":"1.1.1.1","extra":true}`,
		"trailing": `{"ip":"1.1.1.1"}{"ip":"2.2.2.2"}`,
		"array":    `[1,2]`,
	}
	for name, body := range cases {
		_, err := ParseJSON[probe](req(body))
		if perr.CodeOf(err) != perr.ErrorCodeJSON {
			t.Fatalf("%s: %v", name, err)
		}
	}
}

func TestDecode_BodyCap(t *testing.T) {
	_, err := Decode[probe](req(`{"ip":"1.1.1.1","line":"`+strings.Repeat("a", 64)+`"}`), 32)
	if perr.CodeOf(err) != perr.ErrorCodeJSON || !strings.Contains(err.Error(), "exceeds 32 bytes") {
		t.Fatalf("err %v", err)
	}
}

func TestParseJSON_ValidationNamesField(t *testing.T) {
	cases := []struct {
		body, field, msg string
	}{
		{`{"ip":""}`, "ip", "ip is a required field"},
		{`{"ip":"999.1.1.1"}`, "ip", ""},
		{`{"ip":"1.1.1.1","line":"a\nb"}`, "line", "line must be a single line"},
		{`{"ip":"1.1.1.1","line":"` + strings.Repeat("x", 17) + `"}`, "line", "line must be at most 16"},
		{`{"ip":"1.1.1.1","lines":["a","b\r"]}`, "lines[1]", "lines[1] must be a single line"},
	}
	for _, c := range cases {
		_, err := ParseJSON[probe](req(c.body))
		w := perr.WireFrom(err)
		if w.Code != perr.ErrorCodeValidation || w.Field != c.field {
			t.Fatalf("%s: wire %+v", c.body, w)
		}
		if c.msg != "" && w.Message != c.msg {
			t.Fatalf("%s: message %q want %q", c.body, w.Message, c.msg)
		}
	}
}

func TestValidate_Singleton(t *testing.T) {
	if Get() != Get() {
		t.Fatalf("validator must be shared")
	}
	if err := Validate(probe{IP: "10.0.0.1"}); err != nil {
		t.Fatalf("valid struct: %v", err)
	}
	if err := Validate(42); perr.CodeOf(err) != perr.ErrorCodeJSON {
		t.Fatalf("non struct: %v", err)
	}
}
