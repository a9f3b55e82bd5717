package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// StdioHook writes event data to stdout/stderr in a structured format.
type StdioHook struct {
	id     string
	format string // "json" or "env"
	output *os.File
}

// NewStdioHook creates a new stdio hook.
func NewStdioHook(id, format string) *StdioHook {
	return &StdioHook{
		id:     id,
		format: format,
		output: os.Stderr, // avoid mixing with normal relay output
	}
}

// SetOutput sets the output destination (default: stderr).
func (h *StdioHook) SetOutput(output *os.File) *StdioHook {
	h.output = output
	return h
}

// Execute outputs the event data in the configured format.
func (h *StdioHook) Execute(ctx context.Context, event Event) error {
	switch h.format {
	case "json":
		return h.outputJSON(event)
	case "env":
		return h.outputEnv(event)
	default:
		return fmt.Errorf("stdio hook %s: unsupported format: %s", h.id, h.format)
	}
}

// Type returns the hook type.
func (h *StdioHook) Type() string {
	return "stdio"
}

// ID returns the hook ID.
func (h *StdioHook) ID() string {
	return h.id
}

// outputJSON outputs the event as a JSON line prefixed with ROV_EVENT:
func (h *StdioHook) outputJSON(event Event) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("stdio hook %s: failed to marshal JSON: %w", h.id, err)
	}

	if _, err := fmt.Fprintf(h.output, "ROV_EVENT: %s\n", string(jsonData)); err != nil {
		return fmt.Errorf("stdio hook %s: failed to write JSON: %w", h.id, err)
	}

	return nil
}

// outputEnv outputs the event as environment variable assignments.
func (h *StdioHook) outputEnv(event Event) error {
	lines := []string{
		"# ROV Event: " + string(event.Type),
		fmt.Sprintf("ROV_EVENT_TYPE=%s", string(event.Type)),
		fmt.Sprintf("ROV_TIMESTAMP=%d", event.Timestamp),
	}

	if event.FeedID != "" {
		lines = append(lines, "ROV_FEED_ID="+event.FeedID)
	}

	if event.Topic != "" {
		lines = append(lines, "ROV_TOPIC="+event.Topic)
	}

	for key, value := range event.Data {
		envKey := "ROV_" + strings.ToUpper(key)
		envValue := fmt.Sprintf("%v", value)
		lines = append(lines, envKey+"="+envValue)
	}

	lines = append(lines, "") // blank line for readability

	for _, line := range lines {
		if _, err := fmt.Fprintln(h.output, line); err != nil {
			return fmt.Errorf("stdio hook %s: failed to write env line: %w", h.id, err)
		}
	}

	return nil
}
