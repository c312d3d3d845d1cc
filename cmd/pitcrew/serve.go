package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Wesleyxl/pitcrew-ai/pkg/bridge/foxglove"
	"github.com/Wesleyxl/pitcrew-ai/pkg/config"
	"github.com/Wesleyxl/pitcrew-ai/pkg/logger"
	"github.com/Wesleyxl/pitcrew-ai/pkg/status"
)

// listenerFlags are shared by serve and tui.
type listenerFlags struct {
	addr      string
	source    string
	handshake string
	capture   string
	workers   int
}

func (f *listenerFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.addr, "addr", "a", "", "UDP listen address (default from config, 0.0.0.0:20777)")
	fs.StringVar(&f.source, "source", "", "accept datagrams only from this IP")
	fs.StringVar(&f.handshake, "handshake", "", "console address to send the start handshake to")
	fs.StringVar(&f.capture, "capture", "", "record raw datagrams to this capture file")
	fs.IntVarP(&f.workers, "workers", "w", 0, "decode workers (default from config)")
}

func (f *listenerFlags) apply(cmd *cobra.Command, cfg *config.PitcrewConfig) {
	fs := cmd.Flags()
	if fs.Changed("addr") {
		cfg.Listener.Addr = f.addr
	}
	if fs.Changed("source") {
		cfg.Listener.Source = f.source
	}
	if fs.Changed("handshake") {
		cfg.Listener.Handshake = f.handshake
	}
	if fs.Changed("capture") {
		cfg.Capture.Path = f.capture
	}
	if fs.Changed("workers") {
		cfg.Decode.Workers = f.workers
	}
}

func serveCmd(g *globalFlags) *cobra.Command {
	var (
		lf         listenerFlags
		record     string
		foxAddr    string
		statusAddr string
		noFoxglove bool
		noStatus   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Ingest telemetry and serve it to recorders and viewers",
		Long: `Start the ingest pipeline: UDP listener, decode workers and hub, plus
the JSONL recorder, the Foxglove websocket bridge and the status server as
configured.

Examples:
  pitcrew serve
  pitcrew serve --record sessions/monza.jsonl
  pitcrew serve --handshake 192.168.1.20:20777 --source 192.168.1.20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			lf.apply(cmd, &cfg)
			fs := cmd.Flags()
			if fs.Changed("record") {
				cfg.Record.Enabled = record != ""
				cfg.Record.Path = record
			}
			if fs.Changed("foxglove-addr") {
				cfg.Foxglove.WSAddr = foxAddr
			}
			if fs.Changed("status-addr") {
				cfg.Status.Addr = statusAddr
			}
			if noFoxglove {
				cfg.Foxglove.Enabled = false
			}
			if noStatus {
				cfg.Status.Enabled = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log, cleanup, err := newLogger(cfg.Log, cfg.ResolvePath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return runServe(ctx, cfg, log)
		},
	}

	lf.register(cmd)
	cmd.Flags().StringVarP(&record, "record", "r", "", "record decoded packets to this JSONL file")
	cmd.Flags().StringVar(&foxAddr, "foxglove-addr", "", "Foxglove websocket address")
	cmd.Flags().StringVar(&statusAddr, "status-addr", "", "status HTTP address")
	cmd.Flags().BoolVar(&noFoxglove, "no-foxglove", false, "disable the Foxglove bridge")
	cmd.Flags().BoolVar(&noStatus, "no-status", false, "disable the status server")

	return cmd
}

func runServe(ctx context.Context, cfg config.PitcrewConfig, log *zap.Logger) error {
	g, ctx := errgroup.WithContext(ctx)
	in, err := startIngest(ctx, g, cfg, log)
	if err != nil {
		return err
	}

	if cfg.Record.Enabled {
		out := &lumberjack.Logger{
			Filename:   cfg.ResolvePath(cfg.Record.Path),
			MaxSize:    cfg.Record.MaxSizeMB,
			MaxBackups: cfg.Record.MaxBackups,
			Compress:   cfg.Record.Compress,
		}
		w := logger.NewJSONLWriter(out,
			logger.WithKinds(cfg.Record.PacketKinds()...),
			logger.WithLogger(log.Named("record")),
		)
		sub := in.hub.SubscribeWithBuffer(cfg.Decode.ClientBuf)
		g.Go(func() error {
			defer out.Close()
			w.Consume(ctx, sub)
			return nil
		})
		log.Info("recording packets", zap.String("path", out.Filename))
	}

	if cfg.Foxglove.Enabled {
		srv := foxglove.NewServer(foxglove.Config{
			WSAddr:        cfg.Foxglove.WSAddr,
			Name:          cfg.Foxglove.Name,
			TopicPrefix:   cfg.Foxglove.TopicPrefix,
			Kinds:         cfg.Foxglove.PacketKinds(),
			LogName:       cfg.Foxglove.LogName,
			ParentFrameID: cfg.Foxglove.ParentFrame,
			FrameID:       cfg.Foxglove.FrameID,
			SendBuf:       cfg.Foxglove.SendBuf,
		}, in.hub, foxglove.WithLogger(log.Named("foxglove")))
		g.Go(func() error {
			return srv.Run(ctx)
		})
	}

	if cfg.Status.Enabled {
		srv := status.NewServer(cfg.Status.Addr, in.tracker,
			status.WithGatherer(in.registry),
			status.WithLogger(log.Named("status")),
		)
		g.Go(func() error {
			return srv.Run(ctx)
		})
	}

	log.Info("pitcrew serving",
		zap.Stringer("udp", in.listener.LocalAddr()),
		zap.Int("workers", cfg.Decode.Workers),
		zap.Bool("foxglove", cfg.Foxglove.Enabled),
		zap.Bool("status", cfg.Status.Enabled),
	)

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
