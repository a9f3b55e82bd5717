// Package types holds the shared value types that travel through the video
// relay pipeline: feed configuration, raw frames, and their metadata.
package types

import "time"

// PixelFormat names the channel layout of a raw frame.
type PixelFormat string

const (
	FormatBGR    PixelFormat = "bgr"
	FormatGray   PixelFormat = "gray"
	FormatStereo PixelFormat = "stereo"
)

// Channels returns the number of bytes per pixel for the format.
func (f PixelFormat) Channels() int {
	switch f {
	case FormatGray:
		return 1
	case FormatStereo:
		return 6
	default:
		return 3
	}
}

// StreamDims describes a frame's width, height, target fps, and pixel format.
type StreamDims struct {
	Width  int
	Height int
	FPS    int
	Format PixelFormat
}

// FrameSize returns the raw byte size of one frame at these dimensions.
func (d StreamDims) FrameSize() int {
	return d.Width * d.Height * d.Format.Channels()
}

// NetworkType selects how a transport endpoint is opened.
type NetworkType string

const (
	NetworkStream   NetworkType = "tcp"
	NetworkDatagram NetworkType = "udp"
	NetworkNone     NetworkType = "none"
)

// Resilience bundles the reconnect-policy tunables for a feed's source
// connection.
type Resilience struct {
	BaseDelay             time.Duration
	MaxDelay              time.Duration
	MaxConsecutiveFailures int
	ExtendedCooldown      time.Duration
	MaxFrameErrors        int
}

// BackpressureSettings configures a feed's bounded frame queue.
type BackpressureSettings struct {
	MaxSize    int
	GetTimeout time.Duration
}

// FeedConfig is the immutable configuration of one video stream. It is
// loaded once at startup and never mutated afterward.
type FeedConfig struct {
	ID           int
	HostIP       string
	TargetIP     string
	InputPort    int
	OutputPort   int
	InputNetwork NetworkType
	OutputNetwork NetworkType

	Input  StreamDims
	Output StreamDims

	Filters []FilterSpec

	Backpressure BackpressureSettings
	Resilience   Resilience

	WSEnabled bool
	WSPort    int
}

// FilterSpec names one filter stage and its parameter, as loaded from config.
// Param is interpreted per filter name: brightness/contrast/resize take a
// float, lowpass takes an odd kernel size, greyscale takes none.
type FilterSpec struct {
	Name  string
	Param float64
}

// RawFrame is one decoded frame, owned exclusively by whichever stage
// currently holds it: produced once by the decoder, consumed once by the
// encoder writer.
type RawFrame struct {
	Pixels   []byte
	Width    int
	Height   int
	Channels int
}

// FrameMetadata travels alongside a RawFrame through the backpressure queue.
type FrameMetadata struct {
	FrameID           uint64
	TimestampReceived time.Time
	StreamID          int
	OriginalFPS       int
	TargetFPS         int
	InputWidth        int
	InputHeight       int
	OutputWidth       int
	OutputHeight      int
}

// QueueItem is what actually flows through the backpressure queue: a frame
// bound to its metadata.
type QueueItem struct {
	Frame RawFrame
	Meta  FrameMetadata
}
