package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/atikulmunna/droidlog/internal/aggregator"
	"github.com/atikulmunna/droidlog/internal/config"
	"github.com/atikulmunna/droidlog/internal/output"
	"github.com/atikulmunna/droidlog/internal/palette"
	"github.com/atikulmunna/droidlog/internal/source"
)

const summaryTopTags = 10

// runPipeline renders every line src produces until it is exhausted or ctx
// is cancelled. Per-line failures are counted and logged, never returned.
func runPipeline(ctx context.Context, cmd *cobra.Command, src source.Source, cfg config.Config, log *zap.Logger) error {
	out := cmd.OutOrStdout()
	renderer := output.NewTextRenderer(out, cfg.Render(terminalWidth(out)), palette.New(cfg.PaletteMode), cfg.ColorMode)
	stats := aggregator.New(summaryTopTags)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := src.Run(gctx); err != nil {
			return fmt.Errorf("%s source: %w", src.Name(), err)
		}
		return nil
	})

	g.Go(func() error {
		for line := range src.Lines() {
			rec, err := renderer.Render(line.Text)
			if cfg.Stats {
				stats.Record(rec, err)
			}
			if err != nil {
				log.Debug("line dropped", zap.String("source", line.Source), zap.String("line", line.Text), zap.Error(err))
			}
		}
		return nil
	})

	err := g.Wait()

	if cfg.Stats {
		if serr := aggregator.WriteSummary(cmd.ErrOrStderr(), stats.Snapshot()); serr != nil {
			log.Warn("cannot write summary", zap.Error(serr))
		}
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			fmt.Fprintln(cmd.ErrOrStderr(), "\n>droidlog shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// terminalWidth reports the column count of w when it is a terminal and 0
// otherwise, which disables wrapping.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}
