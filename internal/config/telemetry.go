package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/hydrobotics/rov-relay/internal/telemetry/pipeline"
)

// KalmanEntry is one sensor's Kalman tuning, as loaded from
// `telemetry_config.kalman_filters`.
type KalmanEntry struct {
	SensorName string  `mapstructure:"sensor_name"`
	Q          float64 `mapstructure:"q"`
	R          float64 `mapstructure:"r"`
	X0         float64 `mapstructure:"x0"`
	P0         float64 `mapstructure:"p0"`
}

// TelemetryConfig is the root `telemetry_config` JSON object.
type TelemetryConfig struct {
	ReceiverHost       string        `mapstructure:"receiver_host"`
	ReceiverPort       int           `mapstructure:"receiver_port"`
	SchemaDir          string        `mapstructure:"schema_dir"`
	PublishTopic       string        `mapstructure:"base_topic"`
	AggregatorWindowMS int64         `mapstructure:"aggregator_window_ms"`
	HighFrequency      []string      `mapstructure:"high_frequency_sensors"`
	KalmanFilters      []KalmanEntry `mapstructure:"kalman_filters"`
}

type telemetryFile struct {
	TelemetryConfig TelemetryConfig `mapstructure:"telemetry_config"`
}

// LoadTelemetryConfig reads the telemetry processor configuration file.
func LoadTelemetryConfig(path string) (*TelemetryConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	v.SetDefault("telemetry_config.aggregator_window_ms", 1000)
	v.SetDefault("telemetry_config.schema_dir", "./schemas")
	v.SetDefault("telemetry_config.base_topic", "rov/telemetry")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading telemetry config: %w", err)
	}

	var f telemetryFile
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("unmarshaling telemetry config: %w", err)
	}
	return &f.TelemetryConfig, nil
}

// KalmanTunings builds the pipeline's per-sensor Kalman tuning map.
func (c *TelemetryConfig) KalmanTunings() map[string]pipeline.KalmanTuning {
	out := make(map[string]pipeline.KalmanTuning, len(c.KalmanFilters))
	for _, k := range c.KalmanFilters {
		out[k.SensorName] = pipeline.KalmanTuning{Q: k.Q, R: k.R, X0: k.X0, P0: k.P0}
	}
	return out
}

// HighFrequencySet builds the pipeline's high-frequency sensor routing set.
func (c *TelemetryConfig) HighFrequencySet() map[string]bool {
	out := make(map[string]bool, len(c.HighFrequency))
	for _, name := range c.HighFrequency {
		out[name] = true
	}
	return out
}
