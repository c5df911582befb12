package net

import (
	"context"
	"testing"
)

func TestRequestID_RoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "host/abc-000001")
	if got := RequestID(ctx); got != "host/abc-000001" {
		t.Fatalf("got %q", got)
	}
	if RequestID(context.Background()) != "" {
		t.Fatalf("empty context must have no id")
	}
	if WithRequestID(ctx, "") != ctx {
		t.Fatalf("empty id must not rewrap")
	}
}
