package hooks

import "context"

// Hook represents a handler that can be executed when an event occurs.
type Hook interface {
	Execute(ctx context.Context, event Event) error
	Type() string
	ID() string
}

// Config configures the hook dispatcher.
type Config struct {
	// Timeout is a duration string that the Manager validates at construction;
	// it is not applied to hook executions (each hook uses its own timeout).
	Timeout string `json:"timeout"`
	// Concurrency bounds how many hook executions may run at once.
	Concurrency int `json:"concurrency"`
	// StdioFormat selects the stdio hook's output format: "json", "env", or "".
	StdioFormat string `json:"stdio_format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{Timeout: "30s", Concurrency: 10, StdioFormat: ""}
}
