package kit

import (
	"context"
	"errors"
	"testing"
)

func TestChain_Order(t *testing.T) {
	var order []string

	mw := func(name string) Middleware {
		return func(next Endpoint) Endpoint {
			return func(ctx context.Context, req any) (any, error) {
				order = append(order, name+"_before")
				resp, err := next(ctx, req)
				order = append(order, name+"_after")
				return resp, err
			}
		}
	}

	base := func(_ context.Context, _ any) (any, error) {
		order = append(order, "endpoint")
		return "ok", nil
	}

	chained := Chain(mw("log"), mw("trace"), mw("auth"))(base)
	resp, err := chained(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp != "ok" {
		t.Fatalf("response: got %v", resp)
	}

	expected := []string{
		"log_before", "trace_before", "auth_before",
		"endpoint",
		"auth_after", "trace_after", "log_after",
	}
	if len(order) != len(expected) {
		t.Fatalf("order length: got %d, want %d", len(order), len(expected))
	}
	for i, v := range expected {
		if order[i] != v {
			t.Fatalf("order[%d]: got %q, want %q", i, order[i], v)
		}
	}
}

func TestChain_ErrorPropagation(t *testing.T) {
	errFail := errors.New("fail")
	base := func(_ context.Context, _ any) (any, error) {
		return nil, errFail
	}

	passthrough := func(next Endpoint) Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			return next(ctx, req)
		}
	}

	_, err := Chain(passthrough, passthrough)(base)(context.Background(), nil)
	if !errors.Is(err, errFail) {
		t.Fatalf("error: got %v, want %v", err, errFail)
	}
}

func TestContextKeys_RoundTrip(t *testing.T) {
	ctx := context.Background()
	ctx = WithSessionID(ctx, "ses_abc")
	ctx = WithRequestID(ctx, "req_123")

	if got := GetSessionID(ctx); got != "ses_abc" {
		t.Errorf("session id: got %q", got)
	}
	if got := GetRequestID(ctx); got != "req_123" {
		t.Errorf("request id: got %q", got)
	}
	if got := GetTransport(ctx); got != "http" {
		t.Errorf("default transport: got %q, want http", got)
	}
	if got := GetTransport(WithTransport(ctx, "mcp")); got != "mcp" {
		t.Errorf("transport: got %q, want mcp", got)
	}
}
