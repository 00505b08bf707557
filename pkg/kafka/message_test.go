package kafka

import (
	"errors"
	"testing"
)

func TestBuild_StampsEventIDAndTimestamp(t *testing.T) {
	msg := NewMessage().
		WithKey("665f1b2a9c3d4e5f6a7b8c9d").
		WithValue(map[string]string{"action": "reservation_created"}).
		WithEventType("reservation_created").
		WithSource("reservations").
		Build()

	if msg.GetEventID() == "" {
		t.Error("Build must stamp an event ID")
	}
	if msg.Headers[HeaderTimestamp] == "" {
		t.Error("Build must stamp a timestamp header")
	}
	if msg.GetEventType() != "reservation_created" {
		t.Errorf("unexpected event type %q", msg.GetEventType())
	}
	if len(msg.Value) == 0 {
		t.Error("WithValue must JSON-encode the payload")
	}
}

func TestBuild_KeepsCallerEventID(t *testing.T) {
	msg := NewMessage().
		WithHeader(HeaderEventID, "fixed-id").
		WithValue("payload").
		Build()

	if msg.GetEventID() != "fixed-id" {
		t.Errorf("caller-provided event ID must survive, got %q", msg.GetEventID())
	}
}

func TestDecodeValue_RoundTrip(t *testing.T) {
	type payload struct {
		Action string `json:"action"`
		Count  int    `json:"count"`
	}

	msg := NewMessage().WithValue(payload{Action: "status_changed", Count: 3}).Build()

	var got payload
	if err := msg.DecodeValue(&got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Action != "status_changed" || got.Count != 3 {
		t.Errorf("round trip lost data: %+v", got)
	}
}

func TestRetryCount(t *testing.T) {
	msg := NewMessage().WithValue("x").Build()

	if got := msg.GetRetryCount(); got != 0 {
		t.Errorf("fresh message must have retry count 0, got %d", got)
	}

	msg.IncrementRetryCount()
	msg.IncrementRetryCount()
	if got := msg.GetRetryCount(); got != 2 {
		t.Errorf("expected retry count 2, got %d", got)
	}

	msg.Headers[HeaderRetryCount] = "not a number"
	if got := msg.GetRetryCount(); got != 0 {
		t.Errorf("a malformed header must read as 0, got %d", got)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeUnknown},
		{"tagged transient", NewTransientError("db down", nil), ErrorTypeTransient},
		{"tagged permanent", NewPermanentError("bad payload", nil), ErrorTypePermanent},
		{"wrapped tagged", errors.Join(errors.New("outer"), NewTransientError("inner", nil)), ErrorTypeTransient},
		{"network text", errors.New("dial tcp: connection refused"), ErrorTypeTransient},
		{"unknown text", errors.New("field missing"), ErrorTypePermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	transient := NewTransientError("db down", nil)

	if !ShouldRetry(transient, 0, 3) {
		t.Error("a transient error under the retry budget must retry")
	}
	if ShouldRetry(transient, 3, 3) {
		t.Error("an exhausted retry budget must stop retrying")
	}
	if ShouldRetry(NewPermanentError("bad payload", nil), 0, 3) {
		t.Error("a permanent error must never retry")
	}
	if ShouldRetry(nil, 0, 3) {
		t.Error("nil error must not retry")
	}
}
