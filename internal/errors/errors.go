package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"
)

// marker is implemented by the typed error kinds (all but TimeoutError, which
// IsTimeout classifies separately) so callers can classify a wrapped error
// chain without a type switch per kind.
type marker interface {
	error
	kind() string
}

// TransportError indicates a failure binding, reading, or writing a video
// source/sink socket (UDP or TCP).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("transport error: %s", e.Op)
	}
	return fmt.Sprintf("transport error: %s: %v", e.Op, e.Err)
}
func (e *TransportError) Unwrap() error { return e.Err }
func (e *TransportError) kind() string  { return "transport" }

// DecoderProcessError indicates the decoder child process failed to start,
// crashed, or stopped accepting writes.
type DecoderProcessError struct {
	Op  string
	Err error
}

func (e *DecoderProcessError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("decoder process error: %s", e.Op)
	}
	return fmt.Sprintf("decoder process error: %s: %v", e.Op, e.Err)
}
func (e *DecoderProcessError) Unwrap() error { return e.Err }
func (e *DecoderProcessError) kind() string  { return "decoder_process" }

// EncoderProcessError indicates the encoder child process failed to start,
// crashed, or stopped accepting writes.
type EncoderProcessError struct {
	Op  string
	Err error
}

func (e *EncoderProcessError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("encoder process error: %s", e.Op)
	}
	return fmt.Sprintf("encoder process error: %s: %v", e.Op, e.Err)
}
func (e *EncoderProcessError) Unwrap() error { return e.Err }
func (e *EncoderProcessError) kind() string  { return "encoder_process" }

// FrameShapeError indicates a frame read from a decoder did not match the
// expected byte size for the configured resolution/pixel format.
type FrameShapeError struct {
	Op       string
	Expected int
	Got      int
}

func (e *FrameShapeError) Error() string {
	return fmt.Sprintf("frame shape error: %s: expected %d bytes, got %d", e.Op, e.Expected, e.Got)
}
func (e *FrameShapeError) kind() string { return "frame_shape" }

// SchemaMissingError indicates a required schema file was not found at
// startup. Fatal.
type SchemaMissingError struct {
	Topic string
	Err   error
}

func (e *SchemaMissingError) Error() string {
	return fmt.Sprintf("schema missing for topic %q: %v", e.Topic, e.Err)
}
func (e *SchemaMissingError) Unwrap() error { return e.Err }
func (e *SchemaMissingError) kind() string  { return "schema_missing" }

// SchemaValidationError indicates an assembled packet failed schema
// validation. Non-fatal; logged and the packet is dropped for that tick.
type SchemaValidationError struct {
	Topic string
	Err   error
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("schema validation failed for topic %q: %v", e.Topic, e.Err)
}
func (e *SchemaValidationError) Unwrap() error { return e.Err }
func (e *SchemaValidationError) kind() string  { return "schema_validation" }

// BrokerConnectionError indicates the MQTT-style broker was not reachable
// within the startup grace period. Fatal at startup.
type BrokerConnectionError struct {
	Op  string
	Err error
}

func (e *BrokerConnectionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("broker connection error: %s", e.Op)
	}
	return fmt.Sprintf("broker connection error: %s: %v", e.Op, e.Err)
}
func (e *BrokerConnectionError) Unwrap() error { return e.Err }
func (e *BrokerConnectionError) kind() string  { return "broker_connection" }

// BrokerPublishError indicates a publish call to the broker failed after
// the connection was already established. Logged, not fatal.
type BrokerPublishError struct {
	Topic string
	Err   error
}

func (e *BrokerPublishError) Error() string {
	return fmt.Sprintf("broker publish error on topic %q: %v", e.Topic, e.Err)
}
func (e *BrokerPublishError) Unwrap() error { return e.Err }
func (e *BrokerPublishError) kind() string  { return "broker_publish" }

// WSClientError indicates a single websocket fan-out client failed to
// accept a write. The client is dropped; the broadcaster continues.
type WSClientError struct {
	ClientID string
	Err      error
}

func (e *WSClientError) Error() string {
	return fmt.Sprintf("ws client error: %s: %v", e.ClientID, e.Err)
}
func (e *WSClientError) Unwrap() error { return e.Err }
func (e *WSClientError) kind() string  { return "ws_client" }

// TimeoutError indicates an operation exceeded a deadline or idle timeout.
type TimeoutError struct {
	Op       string
	Duration time.Duration
	Err      error
}

func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout error: %s (after %s)", e.Op, e.Duration)
	if e.Err != nil {
		return base + ": " + e.Err.Error()
	}
	return base
}
func (e *TimeoutError) Unwrap() error { return e.Err }

// IsTimeout returns true if err is (or wraps) a TimeoutError, a context
// deadline exceeded, or any error type that exposes Timeout() bool and
// returns true.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	var te *TimeoutError
	if stdErrors.As(err, &te) {
		return true
	}
	if stdErrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var toErr interface{ Timeout() bool }
	if stdErrors.As(err, &toErr) && toErr.Timeout() {
		return true
	}
	return false
}

func isKind(err error, k string) bool {
	if err == nil {
		return false
	}
	var m marker
	if !stdErrors.As(err, &m) {
		return false
	}
	return m.kind() == k
}

func IsTransport(err error) bool         { return isKind(err, "transport") }
func IsDecoderProcess(err error) bool    { return isKind(err, "decoder_process") }
func IsEncoderProcess(err error) bool    { return isKind(err, "encoder_process") }
func IsFrameShape(err error) bool        { return isKind(err, "frame_shape") }
func IsSchemaMissing(err error) bool     { return isKind(err, "schema_missing") }
func IsSchemaValidation(err error) bool  { return isKind(err, "schema_validation") }
func IsBrokerConnection(err error) bool  { return isKind(err, "broker_connection") }
func IsBrokerPublish(err error) bool     { return isKind(err, "broker_publish") }
func IsWSClient(err error) bool          { return isKind(err, "ws_client") }

// Constructors (encourage contextual wrapping with %w when used by callers).
func NewTransportError(op string, cause error) error      { return &TransportError{Op: op, Err: cause} }
func NewDecoderProcessError(op string, cause error) error { return &DecoderProcessError{Op: op, Err: cause} }
func NewEncoderProcessError(op string, cause error) error { return &EncoderProcessError{Op: op, Err: cause} }
func NewFrameShapeError(op string, expected, got int) error {
	return &FrameShapeError{Op: op, Expected: expected, Got: got}
}
func NewSchemaMissingError(topic string, cause error) error {
	return &SchemaMissingError{Topic: topic, Err: cause}
}
func NewSchemaValidationError(topic string, cause error) error {
	return &SchemaValidationError{Topic: topic, Err: cause}
}
func NewBrokerConnectionError(op string, cause error) error {
	return &BrokerConnectionError{Op: op, Err: cause}
}
func NewBrokerPublishError(topic string, cause error) error {
	return &BrokerPublishError{Topic: topic, Err: cause}
}
func NewWSClientError(clientID string, cause error) error {
	return &WSClientError{ClientID: clientID, Err: cause}
}
func NewTimeoutError(op string, d time.Duration, cause error) error {
	return &TimeoutError{Op: op, Duration: d, Err: cause}
}
