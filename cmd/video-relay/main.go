// Command video-relay ingests per-feed MPEG-TS video, relays it through an
// external codec engine, and fans the re-encoded stream out over
// UDP/TCP and per-feed WebSocket listeners.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hydrobotics/rov-relay/internal/config"
	"github.com/hydrobotics/rov-relay/internal/hooks"
	"github.com/hydrobotics/rov-relay/internal/logger"
	"github.com/hydrobotics/rov-relay/internal/metrics"
	"github.com/hydrobotics/rov-relay/internal/video/codec"
	"github.com/hydrobotics/rov-relay/internal/video/feed"
)

var (
	configPath   string
	logLevel     string
	hookFormat   string
	rssWarnBytes int64
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "video-relay",
		Short: "Relay ROV video feeds through an external codec engine",
		RunE:  runRelay,
	}

	cmd.Flags().StringVar(&configPath, "config", "video_config.json", "path to the video configuration file")
	cmd.Flags().StringVar(&logLevel, "log.level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&hookFormat, "hooks.stdio-format", "", "emit feed/WS lifecycle events to stderr as \"json\" or \"env\" lines")
	cmd.Flags().Int64Var(&rssWarnBytes, "rss-warn-bytes", 512*1024*1024, "log a warning once resident memory exceeds this many bytes")

	return cmd
}

func runRelay(cmd *cobra.Command, _ []string) error {
	logger.Init()
	if err := logger.SetLevel(logLevel); err != nil {
		fmt.Printf("warning: invalid log level %q, using default\n", logLevel)
	}
	log := logger.Logger().With("component", "video-relay")

	videoCfg, err := config.LoadVideoConfig(configPath)
	if err != nil {
		log.Error("failed to load video config", "error", err)
		return err
	}

	hookCfg := hooks.DefaultConfig()
	hookCfg.StdioFormat = hookFormat
	hm := hooks.NewManager(hookCfg, log)
	defer hm.Close()

	feedConfigs := videoCfg.FeedConfigs()
	feeds := make([]*feed.Feed, 0, len(feedConfigs))
	for _, fc := range feedConfigs {
		feeds = append(feeds, feed.New(fc, codec.DecoderArgv, codec.EncoderArgv, log, hm))
	}

	sampler, err := metrics.New(uint64(rssWarnBytes), log)
	if err != nil {
		log.Warn("memory sampler unavailable", "error", err)
		sampler = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	for _, f := range feeds {
		f := f
		g.Go(func() error {
			return f.Run(gctx)
		})
	}

	if sampler != nil {
		g.Go(func() error {
			sampler.Run(gctx)
			return nil
		})
	}

	log.Info("video relay started", "feeds", len(feeds))

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			log.Error("relay stopped with error", "error", err)
			return err
		}
		log.Info("video relay stopped cleanly")
	case <-shutdownCtx.Done():
		log.Error("forced exit after timeout")
	}

	return nil
}
