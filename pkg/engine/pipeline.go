package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Wesleyxl/pitcrew-ai/pkg/protocol"
)

// Decoder is the routing surface of protocol.Dispatcher.
type Decoder interface {
	Supports(buf []byte) bool
	Decode(buf []byte) (protocol.Telemetry, bool)
}

type pipeline struct {
	workers int
	log     *zap.Logger
	now     func() time.Time
}

type PipelineOption func(*pipeline)

// WithWorkers sets the number of decode goroutines. With more than one,
// packets may reach the hub out of arrival order.
func WithWorkers(n int) PipelineOption {
	return func(p *pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithPipelineLogger(l *zap.Logger) PipelineOption {
	return func(p *pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

func WithClock(now func() time.Time) PipelineOption {
	return func(p *pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// RunDecoders reads raw datagrams from in, decodes them with dec and
// publishes the results to hub. It returns when ctx is done, in is closed or
// the hub stops.
func RunDecoders(ctx context.Context, in <-chan []byte, dec Decoder, hub *Hub, opts ...PipelineOption) error {
	p := &pipeline{
		workers: 1,
		log:     zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			return p.work(ctx, in, dec, hub)
		})
	}
	return g.Wait()
}

func (p *pipeline) work(ctx context.Context, in <-chan []byte, dec Decoder, hub *Hub) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case buf, ok := <-in:
			if !ok {
				return nil
			}
			if !dec.Supports(buf) {
				p.log.Debug("unsupported datagram", zap.Int("size", len(buf)))
				continue
			}
			data, ok := dec.Decode(buf)
			if !ok {
				continue
			}
			var player uint8
			if data.PacketID() != protocol.PacketEvent {
				player, _ = protocol.PeekPlayerCarIndex(buf)
			}
			if !hub.Publish(NewPacket(data, len(buf), player, p.now())) {
				return nil
			}
		}
	}
}
