// Package codec builds the ffmpeg command lines used to launch the decoder
// and encoder child processes. The exact invocation is an external concern:
// callers only depend on decoder.ArgvBuilder / encoder.ArgvBuilder, so a
// different codec engine can be swapped in without touching the feed
// pipeline.
package codec

import (
	"fmt"

	"github.com/hydrobotics/rov-relay/internal/video/types"
)

func pixFmt(f types.PixelFormat) string {
	switch f {
	case types.FormatGray:
		return "gray"
	case types.FormatStereo:
		return "bgr48le"
	default:
		return "bgr24"
	}
}

// DecoderArgv builds the argv for a decoder child that reads an MPEG-TS
// stream on stdin and writes raw pixel frames at the given dimensions to
// stdout.
func DecoderArgv(in types.StreamDims) []string {
	return []string{
		"ffmpeg",
		"-loglevel", "error",
		"-f", "mpegts",
		"-i", "pipe:0",
		"-vf", fmt.Sprintf("scale=%d:%d,fps=%d", in.Width, in.Height, in.FPS),
		"-pix_fmt", pixFmt(in.Format),
		"-f", "rawvideo",
		"pipe:1",
	}
}

// EncoderArgv builds the argv for an encoder child that reads raw pixel
// frames of the given dimensions on stdin and writes an MPEG-TS byte
// stream to stdout.
func EncoderArgv(out types.StreamDims) []string {
	return []string{
		"ffmpeg",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", pixFmt(out.Format),
		"-s", fmt.Sprintf("%dx%d", out.Width, out.Height),
		"-r", fmt.Sprintf("%d", out.FPS),
		"-i", "pipe:0",
		"-c:v", "mpeg2video",
		"-f", "mpegts",
		"pipe:1",
	}
}
