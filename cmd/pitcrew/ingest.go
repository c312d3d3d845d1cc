package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Wesleyxl/pitcrew-ai/pkg/capture"
	"github.com/Wesleyxl/pitcrew-ai/pkg/config"
	"github.com/Wesleyxl/pitcrew-ai/pkg/diag"
	"github.com/Wesleyxl/pitcrew-ai/pkg/engine"
	"github.com/Wesleyxl/pitcrew-ai/pkg/protocol"
	"github.com/Wesleyxl/pitcrew-ai/pkg/transport"
)

// ingest is the shared front half of serve and tui: UDP listener, optional
// raw capture, decode workers and the hub they publish to.
type ingest struct {
	hub      *engine.Hub
	tracker  *diag.Tracker
	registry *prometheus.Registry
	listener *transport.Listener
}

// startIngest launches every ingest goroutine on g. ctx must be g's context.
func startIngest(ctx context.Context, g *errgroup.Group, cfg config.PitcrewConfig, log *zap.Logger) (*ingest, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	tracker := diag.NewTracker(diag.WithTrackerLogger(log.Named("diag")))
	metrics := diag.NewMetrics(diag.WithRegistry(registry))
	dispatcher := protocol.NewDispatcher(
		protocol.WithLogger(log.Named("decode")),
		protocol.WithDiagnostics(diag.Multi(tracker, metrics)),
	)

	hub := engine.NewHub(
		engine.WithBroadcastBuffer(cfg.Decode.HubBuf),
		engine.WithClientBuffer(cfg.Decode.ClientBuf),
	)
	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})

	l := cfg.Listener
	opts := []transport.Option{
		transport.WithLogger(log.Named("udp")),
		transport.WithBufferSize(l.BufferSize),
		transport.WithReadTimeout(l.ReadTimeoutDuration()),
		transport.WithReconnectInterval(l.ReconnectDuration()),
		transport.WithReconnectMax(l.ReconnectMaxDuration()),
	}
	if l.Source != "" {
		opts = append(opts, transport.WithSource(l.Source))
	}
	if l.Handshake != "" {
		opts = append(opts, transport.WithHandshake(l.Handshake))
	}

	frames := make(chan []byte, l.Queue)
	listener, err := transport.StartListener(ctx, l.Addr, frames, opts...)
	if err != nil {
		return nil, err
	}

	var decodeIn <-chan []byte = frames
	if cfg.Capture.Path != "" {
		path := cfg.ResolvePath(cfg.Capture.Path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create capture directory: %w", err)
		}
		file, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("create capture: %w", err)
		}
		toDecode := make(chan []byte, l.Queue)
		toCapture := make(chan []byte, l.Queue)
		w := capture.NewWriter(file)
		g.Go(func() error {
			return tee(ctx, frames, toCapture, toDecode)
		})
		g.Go(func() error {
			defer file.Close()
			return w.Consume(ctx, toCapture)
		})
		decodeIn = toDecode
		log.Info("capturing raw datagrams", zap.String("path", path))
	}

	g.Go(func() error {
		return engine.RunDecoders(ctx, decodeIn, dispatcher, hub,
			engine.WithWorkers(cfg.Decode.Workers),
			engine.WithPipelineLogger(log.Named("engine")),
		)
	})
	g.Go(func() error {
		<-listener.Done()
		received, filtered := listener.Stats()
		log.Info("udp listener stopped", zap.Uint64("received", received), zap.Uint64("filtered", filtered))
		return nil
	})

	return &ingest{
		hub:      hub,
		tracker:  tracker,
		registry: registry,
		listener: listener,
	}, nil
}

// tee copies every frame from in to each out. The outs are closed when in
// closes or ctx is done.
func tee(ctx context.Context, in <-chan []byte, outs ...chan<- []byte) error {
	defer func() {
		for _, out := range outs {
			close(out)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case frame, ok := <-in:
			if !ok {
				return nil
			}
			for _, out := range outs {
				select {
				case out <- frame:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
}
