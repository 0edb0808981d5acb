package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/atikulmunna/droidlog/internal/config"
	"github.com/atikulmunna/droidlog/internal/device"
	"github.com/atikulmunna/droidlog/internal/logging"
	"github.com/atikulmunna/droidlog/internal/source"
)

// streamFlags are the options of `droidlog stream`, also accepted by the
// bare root command.
type streamFlags struct {
	app     string
	current bool
	clear   bool
	buffers []string
	level   string
}

func (f *streamFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.app, "app", "", "package name or pid by which to filter logcat")
	fs.BoolVar(&f.current, "current", false, "filter by the app currently in the foreground (when --app is not set)")
	fs.BoolVar(&f.clear, "clear", false, "clear the device log before streaming")
	fs.StringSliceVarP(&f.buffers, "buffer", "b", nil, "logcat buffers to read: main, system, crash, events, radio, all")
	fs.StringVarP(&f.level, "level", "l", "", "minimum level to stream: V, D, I, W, E or F")
}

func (c *cli) newStreamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Stream logcat from the connected device",
		Long: `Run adb logcat and render its output until interrupted.

Examples:
  droidlog stream --app com.example.app
  droidlog stream --current --clear
  droidlog stream -b main -b crash --level W -i chatty`,
		Args: cobra.NoArgs,
		RunE: c.runStream,
	}
	c.stream.register(cmd.Flags())
	return cmd
}

func (c *cli) runStream(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.v)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	if err := validateLevel(c.stream.level); err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	stderr := cmd.ErrOrStderr()
	resolver := device.NewResolver(cfg.ADB, cfg.Serial, device.ExecRunner{})

	var pid int
	switch {
	case c.stream.app != "":
		pid, err = resolver.ResolveApp(ctx, c.stream.app)
		if err != nil {
			return err
		}

	case c.stream.current:
		fmt.Fprintln(stderr, ">Pid not specified, find currently run app")
		var pkg string
		pkg, pid, err = resolver.CurrentApp(ctx)
		switch {
		case errors.Is(err, device.ErrNoCurrentApp):
			fmt.Fprintln(stderr, ">No app currently running")
		case errors.Is(err, device.ErrAppNotFound):
			fmt.Fprintf(stderr, ">Cannot find pid of currently running app '%s'\n", pkg)
		case err != nil:
			return err
		}
	}

	if pid > 0 {
		fmt.Fprintf(stderr, ">Using pid %d\n", pid)
	}

	src := source.NewLogcat(source.LogcatOptions{
		ADB:      cfg.ADB,
		Serial:   cfg.Serial,
		PID:      pid,
		Buffers:  c.stream.buffers,
		MinLevel: c.stream.level,
		Clear:    c.stream.clear,
	}, log.Named("adb"))

	log.Debug("streaming", zap.Int("pid", pid), zap.Strings("args", src.Args()))
	return runPipeline(ctx, cmd, src, cfg, log)
}

func validateLevel(level string) error {
	switch level {
	case "", "V", "D", "I", "W", "E", "F", "v", "d", "i", "w", "e", "f":
		return nil
	}
	return fmt.Errorf("unknown level %q (want V, D, I, W, E or F)", level)
}
