// Package config loads the JSON-formatted video and telemetry
// configuration files via Viper, translating them into the value types the
// video and telemetry pipelines consume directly.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/hydrobotics/rov-relay/internal/video/types"
)

// FeedSettings mirrors one feed's `feed_settings` JSON object.
type FeedSettings struct {
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
	FPS    int    `mapstructure:"fps"`
	Format string `mapstructure:"format"`
}

// FilterSettings mirrors a feed's optional `filter_settings` JSON object.
type FilterSettings struct {
	Filters []FilterEntry `mapstructure:"filters"`
}

// FilterEntry is one ordered filter step.
type FilterEntry struct {
	Name  string  `mapstructure:"name"`
	Param float64 `mapstructure:"param"`
}

// BackpressureQueueSettings mirrors a feed's optional
// `backpressure_queue_settings` JSON object.
type BackpressureQueueSettings struct {
	MaxQueueSize  int `mapstructure:"max_queue_size"`
	QueueTimeoutMS int `mapstructure:"queue_timeout_ms"`
}

// FeedEntry is one entry in `video_config.input_feeds` / `.output_feeds`.
type FeedEntry struct {
	ID                   int                       `mapstructure:"id"`
	FeedSettings         FeedSettings              `mapstructure:"feed_settings"`
	FilterSettings       FilterSettings             `mapstructure:"filter_settings"`
	BackpressureSettings BackpressureQueueSettings  `mapstructure:"backpressure_queue_settings"`
}

// ClientResilience mirrors `network.client_resilience`.
type ClientResilience struct {
	BaseDelayMS            int `mapstructure:"base_delay_ms"`
	MaxDelayMS             int `mapstructure:"max_delay_ms"`
	MaxConsecutiveFailures int `mapstructure:"max_consecutive_failures"`
	ExtendedCooldownMS     int `mapstructure:"extended_cooldown_ms"`
	MaxFrameErrors         int `mapstructure:"max_frame_errors"`
}

// WebSocketRelay mirrors `network.websocket_relay`.
type WebSocketRelay struct {
	Enabled  bool `mapstructure:"enabled"`
	BasePort int  `mapstructure:"base_port"`
}

// Network mirrors `video_config.network`.
type Network struct {
	HostIP               string           `mapstructure:"host_ip"`
	TargetIP             string           `mapstructure:"target_ip"`
	InputBaseVideoPort   int              `mapstructure:"input_base_video_port"`
	OutputBaseVideoPort  int              `mapstructure:"output_base_video_port"`
	InputNetworkType     string           `mapstructure:"input_network_type"`
	OutputNetworkType    string           `mapstructure:"output_network_type"`
	WebsocketRelay       WebSocketRelay   `mapstructure:"websocket_relay"`
	ClientResilience     ClientResilience `mapstructure:"client_resilience"`
}

// VideoConfig is the root `video_config` JSON object.
type VideoConfig struct {
	InputFeeds  []FeedEntry `mapstructure:"input_feeds"`
	OutputFeeds []FeedEntry `mapstructure:"output_feeds"`
	Network     Network     `mapstructure:"network"`
}

type videoFile struct {
	VideoConfig VideoConfig `mapstructure:"video_config"`
}

// LoadVideoConfig reads and validates the video relay configuration file.
func LoadVideoConfig(path string) (*VideoConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	setVideoDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading video config: %w", err)
	}

	var f videoFile
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("unmarshaling video config: %w", err)
	}

	if len(f.VideoConfig.InputFeeds) == 0 {
		return nil, fmt.Errorf("video config must declare at least one input feed")
	}

	return &f.VideoConfig, nil
}

func setVideoDefaults(v *viper.Viper) {
	v.SetDefault("video_config.network.input_network_type", "tcp")
	v.SetDefault("video_config.network.output_network_type", "udp")
	v.SetDefault("video_config.network.client_resilience.base_delay_ms", 500)
	v.SetDefault("video_config.network.client_resilience.max_delay_ms", 30000)
	v.SetDefault("video_config.network.client_resilience.max_consecutive_failures", 5)
	v.SetDefault("video_config.network.client_resilience.extended_cooldown_ms", 60000)
	v.SetDefault("video_config.network.client_resilience.max_frame_errors", 10)
	v.SetDefault("video_config.network.websocket_relay.enabled", false)
}

// FeedConfigs merges each input feed entry with the shared network section
// into the video pipeline's per-feed FeedConfig value type.
func (c *VideoConfig) FeedConfigs() []types.FeedConfig {
	out := make([]types.FeedConfig, 0, len(c.InputFeeds))
	for _, in := range c.InputFeeds {
		out = append(out, c.feedConfig(in))
	}
	return out
}

func (c *VideoConfig) feedConfig(in FeedEntry) types.FeedConfig {
	net := c.Network
	res := net.ClientResilience

	filters := make([]types.FilterSpec, 0, len(in.FilterSettings.Filters))
	for _, f := range in.FilterSettings.Filters {
		filters = append(filters, types.FilterSpec{Name: f.Name, Param: f.Param})
	}

	maxQueueSize := in.BackpressureSettings.MaxQueueSize
	if maxQueueSize <= 0 {
		maxQueueSize = 30
	}
	queueTimeoutMS := in.BackpressureSettings.QueueTimeoutMS
	if queueTimeoutMS <= 0 {
		queueTimeoutMS = 1000
	}

	dims := types.StreamDims{
		Width:  in.FeedSettings.Width,
		Height: in.FeedSettings.Height,
		FPS:    in.FeedSettings.FPS,
		Format: parseFormat(in.FeedSettings.Format),
	}

	return types.FeedConfig{
		ID:            in.ID,
		HostIP:        net.HostIP,
		TargetIP:      net.TargetIP,
		InputPort:     net.InputBaseVideoPort + in.ID,
		OutputPort:    net.OutputBaseVideoPort + in.ID,
		InputNetwork:  parseNetworkType(net.InputNetworkType),
		OutputNetwork: parseNetworkType(net.OutputNetworkType),
		Input:         dims,
		Output:        dims,
		Filters:       filters,
		Backpressure: types.BackpressureSettings{
			MaxSize:    maxQueueSize,
			GetTimeout: msToDuration(queueTimeoutMS),
		},
		Resilience: types.Resilience{
			BaseDelay:              msToDuration(res.BaseDelayMS),
			MaxDelay:               msToDuration(res.MaxDelayMS),
			MaxConsecutiveFailures: res.MaxConsecutiveFailures,
			ExtendedCooldown:       msToDuration(res.ExtendedCooldownMS),
			MaxFrameErrors:         res.MaxFrameErrors,
		},
		WSEnabled: net.WebsocketRelay.Enabled,
		WSPort:    net.WebsocketRelay.BasePort + in.ID,
	}
}

func parseFormat(s string) types.PixelFormat {
	switch s {
	case "gray":
		return types.FormatGray
	case "stereo":
		return types.FormatStereo
	default:
		return types.FormatBGR
	}
}

func parseNetworkType(s string) types.NetworkType {
	switch s {
	case "udp":
		return types.NetworkDatagram
	case "tcp":
		return types.NetworkStream
	default:
		return types.NetworkNone
	}
}
