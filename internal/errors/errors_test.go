package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
	"testing"
	"time"
)

// fakeTimeoutErr simulates a net.Error with Timeout semantics (we don't need full net.Error here).
type fakeTimeoutErr struct{}

func (fakeTimeoutErr) Error() string { return "fake timeout" }
func (fakeTimeoutErr) Timeout() bool { return true }

func TestIsTransportClassification(t *testing.T) {
	root := stdErrors.New("root")
	wrapped := fmt.Errorf("adding context: %w", root)
	te := NewTransportError("source.bind", wrapped)
	if !IsTransport(te) {
		t.Fatalf("expected IsTransport=true for transport error")
	}
	if !stdErrors.Is(te, root) {
		t.Fatalf("expected errors.Is to find root cause")
	}
	var tErr *TransportError
	if !stdErrors.As(te, &tErr) {
		t.Fatalf("expected errors.As to *TransportError")
	}
	if tErr.Op != "source.bind" {
		t.Fatalf("unexpected op: %s", tErr.Op)
	}

	de := NewDecoderProcessError("decoder.start", nil)
	if !IsDecoderProcess(de) {
		t.Fatalf("expected decoder process error classified")
	}
	ee := NewEncoderProcessError("encoder.start", nil)
	if !IsEncoderProcess(ee) {
		t.Fatalf("expected encoder process error classified")
	}
	if IsTransport(de) {
		t.Fatalf("decoder process error should not classify as transport")
	}
}

func TestFrameShapeError(t *testing.T) {
	fe := NewFrameShapeError("decode.read", 1316, 512)
	if !IsFrameShape(fe) {
		t.Fatalf("expected frame shape classification")
	}
	if s := fe.Error(); s == "" {
		t.Fatalf("empty frame shape error string")
	}
}

func TestSchemaAndBrokerClassification(t *testing.T) {
	sm := NewSchemaMissingError("rov/telemetry", stdErrors.New("no such file"))
	if !IsSchemaMissing(sm) {
		t.Fatalf("expected schema missing classification")
	}
	sv := NewSchemaValidationError("rov/telemetry", stdErrors.New("depth: required"))
	if !IsSchemaValidation(sv) {
		t.Fatalf("expected schema validation classification")
	}
	if IsSchemaMissing(sv) {
		t.Fatalf("schema validation should not classify as schema missing")
	}

	bc := NewBrokerConnectionError("connect", stdErrors.New("refused"))
	if !IsBrokerConnection(bc) {
		t.Fatalf("expected broker connection classification")
	}
	bp := NewBrokerPublishError("rov/telemetry", stdErrors.New("write: broken pipe"))
	if !IsBrokerPublish(bp) {
		t.Fatalf("expected broker publish classification")
	}
	if IsBrokerConnection(bp) {
		t.Fatalf("broker publish should not classify as broker connection")
	}
}

func TestWSClientError(t *testing.T) {
	we := NewWSClientError("client-42", stdErrors.New("write: connection reset"))
	if !IsWSClient(we) {
		t.Fatalf("expected ws client classification")
	}
	var wc *WSClientError
	if !stdErrors.As(we, &wc) {
		t.Fatalf("expected errors.As to *WSClientError")
	}
	if wc.ClientID != "client-42" {
		t.Fatalf("unexpected client id: %s", wc.ClientID)
	}
}

func TestIsTimeout(t *testing.T) {
	root := fakeTimeoutErr{}
	to := NewTimeoutError("decoder.read", 5*time.Second, root)
	if !IsTimeout(to) {
		t.Fatalf("expected TimeoutError recognized")
	}
	if IsTransport(to) {
		t.Fatalf("timeout should NOT classify as transport")
	}
	if !IsTimeout(context.DeadlineExceeded) {
		t.Fatalf("expected context deadline recognized")
	}
	var ne error = root
	if !IsTimeout(ne) {
		t.Fatalf("expected net-like timeout recognized")
	}
}

func TestUnwrapChains(t *testing.T) {
	base := stdErrors.New("io EOF")
	l1 := fmt.Errorf("read: %w", base)
	l2 := NewTransportError("source.read", l1)
	if !stdErrors.Is(l2, base) {
		t.Fatalf("errors.Is should reach base cause")
	}
	var m marker
	if !stdErrors.As(l2, &m) {
		t.Fatalf("expected to match marker via As")
	}
}

func TestNilSafety(t *testing.T) {
	if IsTransport(nil) {
		t.Fatalf("nil should not be transport error")
	}
	if IsTimeout(nil) {
		t.Fatalf("nil should not be timeout")
	}
}

func TestConstructorWithoutCause(t *testing.T) {
	de := NewDecoderProcessError("decoder.start", nil)
	if de == nil {
		t.Fatalf("constructor returned nil")
	}
	if errStr := de.Error(); errStr == "" {
		t.Fatalf("expected non-empty error string")
	}
}

func TestNilErrBranchesAndStrings(t *testing.T) {
	te := NewTransportError("op1", nil)
	if te == nil {
		t.Fatalf("nil transport error")
	}
	if !IsTransport(te) {
		t.Fatalf("expected transport classification")
	}
	if s := te.Error(); s == "" || s == "transport error:" {
		t.Fatalf("unexpected transport error string: %q", s)
	}

	de := NewDecoderProcessError("op2", nil)
	if s := de.Error(); s == "" || s == "decoder process error:" {
		t.Fatalf("bad decoder process error string: %q", s)
	}

	ee := NewEncoderProcessError("op3", nil)
	if s := ee.Error(); s == "" {
		t.Fatalf("empty encoder process error string")
	}

	to := NewTimeoutError("op5", 100*time.Millisecond, nil)
	if !IsTimeout(to) {
		t.Fatalf("timeout classification failed")
	}
	if IsTransport(to) {
		t.Fatalf("timeout misclassified as transport")
	}
	if s := to.Error(); s == "" {
		t.Fatalf("empty timeout error string")
	}
}

func TestNegativePredicates(t *testing.T) {
	if IsTransport(stdErrors.New("plain")) {
		t.Fatalf("plain error shouldn't be transport")
	}
	if IsTimeout(stdErrors.New("plain")) {
		t.Fatalf("plain error shouldn't be timeout")
	}
}
