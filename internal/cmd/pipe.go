package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atikulmunna/droidlog/internal/config"
	"github.com/atikulmunna/droidlog/internal/logging"
	"github.com/atikulmunna/droidlog/internal/source"
)

func (c *cli) newPipeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pipe",
		Short: "Render logcat lines read from stdin",
		Long: `Render logcat output piped in from another command. The input must use
the "time" format.

Examples:
  adb logcat -v time | droidlog pipe
  adb logcat -d -v time | droidlog pipe --color always | less -R`,
		Args: cobra.NoArgs,
		RunE: c.runPipe,
	}
}

func (c *cli) runPipe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.v)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, cancel := signalContext(cmd)
	defer cancel()

	return runPipeline(ctx, cmd, source.NewReader(cmd.InOrStdin(), "stdin"), cfg, log)
}
