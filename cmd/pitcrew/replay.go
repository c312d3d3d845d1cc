package main

import (
	"fmt"
	"net"
	"os"

	"github.com/spf13/cobra"

	"github.com/Wesleyxl/pitcrew-ai/pkg/capture"
)

func replayCmd() *cobra.Command {
	var (
		addr  string
		speed float64
	)

	cmd := &cobra.Command{
		Use:   "replay <capture-file>",
		Short: "Send a raw datagram capture back over UDP",
		Long: `Replay a file written by "pitcrew serve --capture". Datagrams keep their
recorded spacing divided by --speed; --speed 0 sends them back to back.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open capture: %w", err)
			}
			defer file.Close()

			conn, err := net.Dial("udp", addr)
			if err != nil {
				return fmt.Errorf("dial %s: %w", addr, err)
			}
			defer conn.Close()

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			sent, err := capture.Replay(ctx, capture.NewReader(file), speed, func(b []byte) error {
				_, err := conn.Write(b)
				return err
			})
			fmt.Fprintf(cmd.OutOrStdout(), "replayed %d datagrams to %s\n", sent, addr)
			if err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "127.0.0.1:20777", "UDP destination")
	cmd.Flags().Float64Var(&speed, "speed", 1, "playback speed multiplier (0 = as fast as possible)")

	return cmd
}
