// Package remote is the port to the hosted persistence backend. Every call
// is opaque request/response I/O: a Response carries either data or a
// non-empty error string, never both.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
)

// Op names a backend operation.
type Op string

const (
	OpLogin         Op = "login"
	OpSignup        Op = "signup"
	OpFetchProfile  Op = "fetch-profile"
	OpUpdateProfile Op = "update-profile"
	OpVerify        Op = "verify"
	OpUpgrade       Op = "upgrade"
	OpResetPassword Op = "reset-password"
)

// Backend performs remote persistence calls.
type Backend interface {
	Call(ctx context.Context, op Op, userID string, payload any) Response
}

// Response is the outcome of a Backend call.
type Response struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
	Status int             `json:"status"`
}

// OK builds a successful response carrying v as data.
func OK(v any) Response {
	data, err := json.Marshal(v)
	if err != nil {
		return Failed(0, fmt.Sprintf("failed to encode response: %v", err))
	}
	return Response{Data: data, Status: 200}
}

// Failed builds an error response.
func Failed(status int, msg string) Response {
	if msg == "" {
		msg = "remote call failed"
	}
	return Response{Error: msg, Status: status}
}

// Err returns nil for a successful response and an *Error otherwise.
func (r Response) Err() error {
	if r.Error == "" {
		return nil
	}
	return &Error{Message: r.Error, Status: r.Status}
}

// ErrFor is Err with the failed operation recorded.
func (r Response) ErrFor(op Op) error {
	if r.Error == "" {
		return nil
	}
	return &Error{Op: op, Message: r.Error, Status: r.Status}
}

// Decode unmarshals the response data into v.
func (r Response) Decode(v any) error {
	if err := r.Err(); err != nil {
		return err
	}
	if len(r.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("failed to decode remote data: %w", err)
	}
	return nil
}

// Error is a failed remote call. It is logged and surfaced but never undoes
// the local change that triggered it.
type Error struct {
	Op      Op
	Message string
	Status  int
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("remote %s failed (status %d): %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("remote call failed (status %d): %s", e.Status, e.Message)
}

// Noop is a Backend for offline operation: every call succeeds with no data.
type Noop struct{}

func (Noop) Call(context.Context, Op, string, any) Response {
	return Response{Status: 200}
}
