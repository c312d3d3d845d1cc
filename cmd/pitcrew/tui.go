package main

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Wesleyxl/pitcrew-ai/pkg/dashboard"
)

func tuiCmd(g *globalFlags) *cobra.Command {
	var lf listenerFlags

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Show the player car live in the terminal",
		Long: `Run the ingest pipeline and render the player car's telemetry, lap
timing, session conditions, tyre wear and recent race events.

Logs are only written to --log-file (or [log].file) while the dashboard
owns the terminal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			lf.apply(cmd, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			log, cleanup, err := newLogger(cfg.Log, cfg.ResolvePath, io.Discard)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			grp, gctx := errgroup.WithContext(ctx)
			in, err := startIngest(gctx, grp, cfg, log)
			if err != nil {
				return err
			}

			model := dashboard.New(in.hub.SubscribeWithBuffer(cfg.Decode.ClientBuf, dashboard.Kinds()...))
			p := tea.NewProgram(model,
				tea.WithAltScreen(),
				tea.WithContext(gctx),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			_, runErr := p.Run()
			stop()

			if err := grp.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
				return runErr
			}
			return nil
		},
	}
	lf.register(cmd)
	return cmd
}
