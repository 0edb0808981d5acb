// Package config turns flags, environment and the config file into
// validated settings for a rendering session.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/atikulmunna/droidlog/internal/output"
	"github.com/atikulmunna/droidlog/internal/palette"
)

// EnvPrefix prefixes environment overrides, e.g. DROIDLOG_TAG_WIDTH=30.
const EnvPrefix = "DROIDLOG"

// Config keys. Flags are bound to these names.
const (
	KeyTagWidth    = "tag_width"
	KeyTime        = "time"
	KeyTags        = "tag"
	KeyIgnoredTags = "ignored_tag"
	KeyPalette     = "palette"
	KeyColor       = "color"
	KeyWidth       = "width"
	KeyAlignRight  = "align_right"
	KeyStats       = "stats"
	KeyVerbose     = "verbose"
	KeyADB         = "adb"
	KeySerial      = "serial"
)

// Config holds every setting shared by the commands.
type Config struct {
	TagWidth    int      `mapstructure:"tag_width"`
	Time        bool     `mapstructure:"time"`
	Tags        []string `mapstructure:"tag"`
	IgnoredTags []string `mapstructure:"ignored_tag"`
	Palette     string   `mapstructure:"palette"`
	Color       string   `mapstructure:"color"`
	Width       int      `mapstructure:"width"`
	AlignRight  bool     `mapstructure:"align_right"`
	Stats       bool     `mapstructure:"stats"`
	Verbose     bool     `mapstructure:"verbose"`
	ADB         string   `mapstructure:"adb"`
	Serial      string   `mapstructure:"serial"`

	PaletteMode palette.Mode     `mapstructure:"-"`
	ColorMode   output.ColorMode `mapstructure:"-"`
}

// SetDefaults registers default values on v. Every key gets one so that
// environment overrides are seen by Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyTagWidth, output.DefaultTagWidth)
	v.SetDefault(KeyTime, false)
	v.SetDefault(KeyTags, []string{})
	v.SetDefault(KeyIgnoredTags, []string{})
	v.SetDefault(KeyPalette, string(palette.Rotate))
	v.SetDefault(KeyColor, string(output.ColorAuto))
	v.SetDefault(KeyWidth, 0)
	v.SetDefault(KeyAlignRight, false)
	v.SetDefault(KeyStats, false)
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyADB, "adb")
	v.SetDefault(KeySerial, "")
}

// Load reads the settings held by v and validates them.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if cfg.TagWidth < 0 {
		return Config{}, fmt.Errorf("tag width must not be negative, got %d", cfg.TagWidth)
	}
	if cfg.TagWidth == 0 {
		cfg.TagWidth = output.DefaultTagWidth
	}
	if cfg.Width < 0 {
		return Config{}, fmt.Errorf("width must not be negative, got %d", cfg.Width)
	}

	mode, err := palette.ParseMode(cfg.Palette)
	if err != nil {
		return Config{}, err
	}
	cfg.PaletteMode = mode

	color, err := output.ParseColorMode(cfg.Color)
	if err != nil {
		return Config{}, err
	}
	cfg.ColorMode = color

	cfg.Tags = cleanTags(cfg.Tags)
	cfg.IgnoredTags = cleanTags(cfg.IgnoredTags)
	if strings.TrimSpace(cfg.ADB) == "" {
		cfg.ADB = "adb"
	}
	return cfg, nil
}

// Render returns the renderer layout. termWidth is used unless the
// configuration overrides the width.
func (c Config) Render(termWidth int) output.Config {
	width := termWidth
	if c.Width > 0 {
		width = c.Width
	}
	return output.Config{
		TagWidth:      c.TagWidth,
		IncludeTime:   c.Time,
		Include:       c.Tags,
		Exclude:       c.IgnoredTags,
		TerminalWidth: width,
		AlignRight:    c.AlignRight,
	}
}

// cleanTags trims entries and drops empty ones. Entries may themselves be
// comma separated, as they are when they come from the environment.
func cleanTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
