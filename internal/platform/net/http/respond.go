// Package http writes API responses in one JSON envelope and adapts
// value returning handlers to net/http
package http

import (
	"encoding/json"
	stdhttp "net/http"

	perr "wlmerge/internal/platform/errors"
	pnet "wlmerge/internal/platform/net"
	"wlmerge/internal/platform/net/http/bind"
)

// Envelope is the body of every JSON response
type Envelope struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	Field      string         `json:"field,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
}

// WriteJSON encodes v with status
func WriteJSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to its status and writes the error envelope
func WriteError(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	status := perr.HTTPStatus(err)
	wire := perr.WireFrom(err)
	WriteJSON(w, status, Envelope{
		StatusCode: status,
		Status:     stdhttp.StatusText(status),
		Code:       wire.Code,
		Error:      wire.Message,
		Field:      wire.Field,
		RequestID:  pnet.RequestID(r.Context()),
	})
}

// WriteData writes a success envelope around data
func WriteData(w stdhttp.ResponseWriter, r *stdhttp.Request, status int, data any) {
	WriteJSON(w, status, Envelope{
		StatusCode: status,
		Status:     stdhttp.StatusText(status),
		RequestID:  pnet.RequestID(r.Context()),
		Data:       data,
	})
}

// Response lets a handler pick a status other than 200
type Response struct {
	Status int
	Data   any
}

// OK is a 200 response
func OK(data any) Response { return Response{Status: stdhttp.StatusOK, Data: data} }

// Accepted is a 202 response
func Accepted(data any) Response { return Response{Status: stdhttp.StatusAccepted, Data: data} }

func respond(w stdhttp.ResponseWriter, r *stdhttp.Request, out any, err error) {
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if resp, ok := out.(Response); ok {
		if resp.Status == 0 {
			resp.Status = stdhttp.StatusOK
		}
		WriteData(w, r, resp.Status, resp.Data)
		return
	}
	WriteData(w, r, stdhttp.StatusOK, out)
}

// Call adapts a handler that reads no body
func Call(fn func(*stdhttp.Request) (any, error)) Handler {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		out, err := fn(r)
		respond(w, r, out, err)
	}
}

// JSONHandler binds and validates a T from the body before calling fn
func JSONHandler[T any](fn func(*stdhttp.Request, T) (any, error)) Handler {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		in, err := bind.ParseJSON[T](r)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		out, err := fn(r, in)
		respond(w, r, out, err)
	}
}

// Text adapts a handler returning a raw text body. Errors still use the
// JSON envelope
func Text(fn func(*stdhttp.Request) ([]byte, error)) Handler {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		b, err := fn(r)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(stdhttp.StatusOK)
		_, _ = w.Write(b)
	}
}
