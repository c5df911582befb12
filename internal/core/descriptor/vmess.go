package descriptor

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// VMessObject is the JSON payload of a vmess line. Top level keys keep their
// original order and every value keeps its original bytes so a rewrite only
// touches the fields that were set
type VMessObject struct {
	fields []vmessField
}

type vmessField struct {
	key string
	val json.RawMessage
}

var errNotObject = errors.New("vmess payload is not a json object")

// ErrVMessEncoding is returned when a vmess payload is not base64 at all
var ErrVMessEncoding = errors.New("vmess payload is not base64")

// decodeVMessPayload pads the base64 payload to a multiple of 4 and decodes it
func decodeVMessPayload(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if rem := len(payload) % 4; rem != 0 {
		payload += strings.Repeat("=", 4-rem)
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err == nil {
		return b, nil
	}
	// some publishers emit the url alphabet
	if b2, err2 := base64.URLEncoding.DecodeString(payload); err2 == nil {
		return b2, nil
	}
	return nil, err
}

// ParseVMess decodes the part of a vmess line after the scheme prefix
func ParseVMess(payload string) (*VMessObject, error) {
	raw, err := decodeVMessPayload(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVMessEncoding, err)
	}
	text := strings.ToValidUTF8(string(raw), "")
	if !strings.HasPrefix(text, "{") {
		return nil, errNotObject
	}
	return decodeVMessObject([]byte(text))
}

func decodeVMessObject(b []byte) (*VMessObject, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errNotObject
	}

	obj := &VMessObject{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errNotObject
		}
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return nil, err
		}
		obj.set(key, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("vmess payload has trailing data")
	}
	return obj, nil
}

// set keeps the first position of a key and the last value, like a decoded map would
func (o *VMessObject) set(key string, val json.RawMessage) {
	for i := range o.fields {
		if o.fields[i].key == key {
			o.fields[i].val = val
			return
		}
	}
	o.fields = append(o.fields, vmessField{key: key, val: val})
}

func (o *VMessObject) lookup(key string) (json.RawMessage, bool) {
	for _, f := range o.fields {
		if f.key == key {
			return f.val, true
		}
	}
	return nil, false
}

// Get returns the field as text. Strings are unquoted, numbers keep their literal
// form, everything else reads as ""
func (o *VMessObject) Get(key string) string {
	val, ok := o.lookup(key)
	if !ok || len(val) == 0 {
		return ""
	}
	switch c := val[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(val, &s); err != nil {
			return ""
		}
		return s
	case c == '-' || (c >= '0' && c <= '9'):
		return string(val)
	default:
		return ""
	}
}

// First returns the first non-empty of the given keys
func (o *VMessObject) First(keys ...string) string {
	for _, k := range keys {
		if v := o.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// Port reads the port field as an integer, accepting numbers and numeric strings
func (o *VMessObject) Port() (uint16, bool) {
	return parsePort(o.Get("port"))
}

// SetString replaces or appends a string field
func (o *VMessObject) SetString(key, value string) error {
	val, err := marshalString(value)
	if err != nil {
		return err
	}
	o.set(key, val)
	return nil
}

// Keys returns the top level keys in payload order
func (o *VMessObject) Keys() []string {
	out := make([]string, 0, len(o.fields))
	for _, f := range o.fields {
		out = append(out, f.key)
	}
	return out
}

// MarshalJSON writes the object compactly in its original key order
func (o *VMessObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshalString(f.key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		if err := json.Compact(&buf, f.val); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Encode returns the base64 payload for a vmess line
func (o *VMessObject) Encode() (string, error) {
	b, err := o.MarshalJSON()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func marshalString(s string) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// parsePort accepts a decimal port, tolerating surrounding space and a float literal
func parsePort(s string) (uint16, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseUint(s, 10, 16); err == nil {
		return uint16(n), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f > 65535 {
		return 0, false
	}
	return uint16(f), true
}
