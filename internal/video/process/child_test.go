package process

import (
	"bufio"
	"context"
	"testing"
	"time"
)

func TestChildStartWriteStop(t *testing.T) {
	t.Parallel()
	c := New("echo-child", []string{"cat"}, nil)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !c.Alive() {
		t.Fatalf("expected alive after Start")
	}

	if _, err := c.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	reader := bufio.NewReader(c.Stdout())
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if line != "hello\n" {
		t.Fatalf("unexpected echo: %q", line)
	}

	c.Stop()
	if c.Alive() {
		t.Fatalf("expected not alive after Stop")
	}
}

func TestChildWriteAfterStopFails(t *testing.T) {
	t.Parallel()
	c := New("stopped-child", []string{"cat"}, nil)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	c.Stop()

	if _, err := c.Write([]byte("x")); err == nil {
		t.Fatalf("expected write to fail once stopped")
	}
}

func TestChildRestartTearsDownPrevious(t *testing.T) {
	t.Parallel()
	c := New("restart-child", []string{"cat"}, nil)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start 1: %v", err)
	}
	first := c.cmd
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start 2: %v", err)
	}
	if c.cmd == first {
		t.Fatalf("expected a new process handle after restart")
	}
	c.Stop()
}

func TestChildStopIsIdempotent(t *testing.T) {
	t.Parallel()
	c := New("idempotent-child", []string{"cat"}, nil)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	done := make(chan struct{})
	go func() {
		c.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Stop did not return in time")
	}
	c.Stop() // should be a no-op, not hang or panic
}
