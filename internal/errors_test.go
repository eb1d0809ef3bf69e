package internal

import (
	"errors"
	"fmt"
	"testing"
)

func TestHTTPError_Message(t *testing.T) {
	err := newHTTPError(404, "body")
	if err.Error() != "Response code 404 (Not Found) 404" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if StatusCodeOf(fmt.Errorf("wrapped: %w", err)) != 404 {
		t.Error("status should survive wrapping")
	}
	if StatusCodeOf(errors.New("plain")) != 0 {
		t.Error("plain errors carry no status")
	}
}

func TestNetworkError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("fetch: %w", &NetworkError{Err: cause})

	if !IsNetworkError(err) {
		t.Error("expected a network error")
	}
	if !errors.Is(err, cause) {
		t.Error("cause should unwrap")
	}
	if (&NetworkError{Err: cause}).Error() != "Network error" {
		t.Error("network errors hide the transport detail")
	}
}

func TestValidationError_Message(t *testing.T) {
	tests := []struct {
		err  *ValidationError
		want string
	}{
		{&ValidationError{Target: "token"}, "Invalid token."},
		{&ValidationError{Target: "guild ID", Value: "g-1"}, "Invalid guild ID: g-1."},
		{&ValidationError{Target: "channel ID", Value: "c-1", Detail: "Channel ID c-1 does not exist in guild g-1."},
			"Invalid channel ID: c-1. Channel ID c-1 does not exist in guild g-1."},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestUpstreamDetail(t *testing.T) {
	if got := upstreamDetail(newHTTPError(404, ` {"message":"Unknown Guild"} `)); got != `{"message":"Unknown Guild"}` {
		t.Errorf("body should win, got %q", got)
	}
	if got := upstreamDetail(newHTTPError(500, "")); got != "Response code 500 (Internal Server Error) 500" {
		t.Errorf("empty body falls back to the message, got %q", got)
	}
}
