package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/atikulmunna/droidlog/internal/config"
	"github.com/atikulmunna/droidlog/internal/output"
)

// cli carries state shared by all commands of one invocation.
type cli struct {
	v       *viper.Viper
	cfgFile string
	stream  streamFlags
}

// newRootCmd builds the command tree. Running the root command without a
// subcommand streams from adb, like `droidlog stream`.
func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "droidlog",
		Short: "droidlog: colorful adb logcat",
		Long: `droidlog renders Android logcat output with a stable color per tag,
severity badges and messages wrapped under an aligned header column.

Examples:
  droidlog --app com.example.app
  droidlog stream --current --clear -t flutter
  adb logcat -v time | droidlog pipe
  droidlog replay "captures/**/*.log" --follow`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initConfig()
		},
		RunE: c.runStream,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&c.cfgFile, "config", "c", "", "config file (default: $HOME/.droidlog.yaml)")
	pf.Bool("time", false, "whether to include time")
	pf.Int("tag-width", output.DefaultTagWidth, "tag column width (0 means the default)")
	pf.StringSliceP("tag", "t", nil, "tags to include in the output (repeatable)")
	pf.StringSliceP("ignored-tag", "i", nil, "tags to exclude from the output (repeatable)")
	pf.String("palette", "rotate", "tag colors: rotate (six colors) or error (red kept for error tags)")
	pf.String("color", "auto", "color output: auto, always or never")
	pf.Int("width", 0, "wrap width in columns (default: terminal width, no wrapping when not a terminal)")
	pf.Bool("align-right", false, "right-align tags inside their column")
	pf.Bool("stats", false, "print a session summary to stderr on exit")
	pf.BoolP("verbose", "v", false, "log diagnostics, including dropped lines")
	pf.String("adb", "adb", "adb executable")
	pf.StringP("serial", "s", "", "device serial, when more than one is attached")

	for key, flag := range map[string]string{
		config.KeyTime:        "time",
		config.KeyTagWidth:    "tag-width",
		config.KeyTags:        "tag",
		config.KeyIgnoredTags: "ignored-tag",
		config.KeyPalette:     "palette",
		config.KeyColor:       "color",
		config.KeyWidth:       "width",
		config.KeyAlignRight:  "align-right",
		config.KeyStats:       "stats",
		config.KeyVerbose:     "verbose",
		config.KeyADB:         "adb",
		config.KeySerial:      "serial",
	} {
		bindFlag(c.v, key, pf.Lookup(flag))
	}

	c.stream.register(rootCmd.Flags())

	rootCmd.AddCommand(c.newStreamCmd(), c.newPipeCmd(), c.newReplayCmd())
	return rootCmd
}

func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", key, err))
	}
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "droidlog:", err)
		os.Exit(1)
	}
}

func (c *cli) initConfig() error {
	config.SetDefaults(c.v)

	if c.cfgFile != "" {
		c.v.SetConfigFile(c.cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			c.v.AddConfigPath(home)
		}
		c.v.AddConfigPath(".")
		c.v.SetConfigName(".droidlog")
		c.v.SetConfigType("yaml")
	}

	c.v.SetEnvPrefix(config.EnvPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if c.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}
