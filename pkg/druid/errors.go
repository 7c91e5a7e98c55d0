package druid

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/druidql/pkg/serde"
)

// Kind classifies a failed round trip.
type Kind int

// Error kinds. New kinds may be added; callers should treat unknown values
// like KindUnknown.
const (
	KindUnknown Kind = iota
	// KindTransport: the request could not be sent or the body not read.
	KindTransport
	// KindSerialization: the query could not be encoded.
	KindSerialization
	// KindServer: the broker answered with an "error" object.
	KindServer
	// KindResponseParsing: the body did not match the expected envelope.
	KindResponseParsing
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindSerialization:
		return "serialization"
	case KindServer:
		return "server"
	case KindResponseParsing:
		return "response parsing"
	}
	return "unknown"
}

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrTransport       = errors.New("druid: transport error")
	ErrSerialization   = errors.New("druid: serialization error")
	ErrServer          = errors.New("druid: server error")
	ErrResponseParsing = errors.New("druid: response parsing error")
)

// maxExcerpt bounds how much of a response body is echoed in messages.
const maxExcerpt = 512

// Error is returned by every client operation.
type Error struct {
	Kind Kind
	// Status is the HTTP status, zero when no response was received.
	Status int
	// Body is the full response body for server and parsing errors.
	Body []byte
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindServer:
		return fmt.Sprintf("druid: server error (status %d): %s", e.Status, e.Excerpt())
	case KindResponseParsing:
		return fmt.Sprintf("druid: cannot decode response: %v\nBody: %s", e.Err, e.Excerpt())
	case KindTransport, KindSerialization:
		return fmt.Sprintf("druid: %s error: %v", e.Kind, e.Err)
	}
	if e.Err != nil {
		return "druid: " + e.Err.Error()
	}
	return "druid: unknown error"
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrSerialization:
		return e.Kind == KindSerialization
	case ErrServer:
		return e.Kind == KindServer
	case ErrResponseParsing:
		return e.Kind == KindResponseParsing
	}
	return false
}

// Excerpt returns the body truncated for display.
func (e *Error) Excerpt() string {
	return serde.Excerpt(e.Body, maxExcerpt)
}

// ServerMessage is the diagnostic a broker puts in an error body.
type ServerMessage struct {
	Error        string `json:"error"`
	ErrorMessage string `json:"errorMessage"`
	ErrorClass   string `json:"errorClass"`
	Host         string `json:"host"`
}

// ServerMessage decodes Body as a broker error object. ok is false when the
// body is not one.
func (e *Error) ServerMessage() (msg ServerMessage, ok bool) {
	if e.Kind != KindServer {
		return msg, false
	}
	var raw map[string]any
	if err := serde.Unmarshal(e.Body, &raw); err != nil {
		return msg, false
	}
	msg.Error = stringOf(raw["error"])
	msg.ErrorMessage = stringOf(raw["errorMessage"])
	msg.ErrorClass = stringOf(raw["errorClass"])
	msg.Host = stringOf(raw["host"])
	return msg, true
}

func stringOf(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
