package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/atikulmunna/droidlog/internal/config"
	"github.com/atikulmunna/droidlog/internal/logging"
	"github.com/atikulmunna/droidlog/internal/tailer"
	"github.com/atikulmunna/droidlog/internal/watcher"
)

func (c *cli) newReplayCmd() *cobra.Command {
	var (
		follow    bool
		resume    bool
		statePath string
	)

	cmd := &cobra.Command{
		Use:   "replay [patterns...]",
		Short: "Render saved logcat captures",
		Long: `Render one or more logcat capture files (or glob patterns) saved with
"adb logcat -v time". Optionally keep following them as they grow.

Examples:
  droidlog replay crash.log
  droidlog replay "captures/**/*.log" --follow
  droidlog replay device.log --follow --resume`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.v)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.Verbose)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer log.Sync()

			w, err := watcher.New(args, log.Named("watcher"))
			if err != nil {
				return fmt.Errorf("failed to create watcher: %w", err)
			}
			if len(w.Paths()) == 0 {
				w.Close()
				return fmt.Errorf("no files matched the given patterns: %v", args)
			}

			opts := tailer.Options{Follow: follow}
			if resume {
				if statePath == "" {
					home, err := os.UserHomeDir()
					if err != nil {
						w.Close()
						return fmt.Errorf("resolve home dir: %w", err)
					}
					statePath = filepath.Join(home, tailer.DefaultCheckpointName)
				}
				ckpt, err := tailer.NewCheckpoint(statePath)
				if err != nil {
					w.Close()
					return fmt.Errorf("failed to load checkpoint: %w", err)
				}
				opts.Checkpoint = ckpt
			}

			if follow {
				stderr := cmd.ErrOrStderr()
				fmt.Fprintf(stderr, ">Following %d file(s):\n", len(w.Paths()))
				for _, p := range w.Paths() {
					fmt.Fprintf(stderr, ">  %s\n", p)
				}
			}

			ctx, cancel := signalContext(cmd)
			defer cancel()

			return runPipeline(ctx, cmd, tailer.New(w, opts, log.Named("tailer")), cfg, log)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep rendering lines appended to the files")
	cmd.Flags().BoolVar(&resume, "resume", false, "continue each file where the previous replay stopped")
	cmd.Flags().StringVar(&statePath, "state", "", "checkpoint file for --resume (default: $HOME/"+tailer.DefaultCheckpointName+")")
	return cmd
}
