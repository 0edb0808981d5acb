package source

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/atikulmunna/droidlog/internal/model"
)

// LogcatOptions selects what `adb logcat` streams.
type LogcatOptions struct {
	ADB      string   // adb executable, "adb" when empty
	Serial   string   // device serial passed with -s
	PID      int      // only this process when > 0
	Buffers  []string // main, system, crash, events, radio, all
	MinLevel string   // V, D, I, W, E or F
	Clear    bool     // flush the device log before streaming
}

// Logcat runs `adb logcat -v time` and streams its output.
type Logcat struct {
	opts LogcatOptions
	out  chan model.RawLine
	log  *zap.Logger
}

// NewLogcat returns a Source backed by a child adb process.
func NewLogcat(opts LogcatOptions, log *zap.Logger) *Logcat {
	if opts.ADB == "" {
		opts.ADB = "adb"
	}
	return &Logcat{
		opts: opts,
		out:  make(chan model.RawLine, DefaultBuffer),
		log:  log,
	}
}

func (l *Logcat) Lines() <-chan model.RawLine { return l.out }
func (l *Logcat) Name() string                { return "adb" }

// Args returns the adb arguments used for streaming.
func (l *Logcat) Args() []string {
	args := l.deviceArgs()
	args = append(args, "logcat", "-v", "time")
	for _, b := range l.opts.Buffers {
		if b = strings.TrimSpace(b); b != "" {
			args = append(args, "-b", b)
		}
	}
	if l.opts.PID > 0 {
		args = append(args, "--pid="+strconv.Itoa(l.opts.PID))
	}
	if lvl := strings.ToUpper(strings.TrimSpace(l.opts.MinLevel)); lvl != "" {
		args = append(args, "*:"+lvl)
	}
	return args
}

func (l *Logcat) deviceArgs() []string {
	if l.opts.Serial == "" {
		return nil
	}
	return []string{"-s", l.opts.Serial}
}

// Run starts adb and streams lines until it exits or ctx is cancelled, in
// which case the child is killed and Run returns nil.
func (l *Logcat) Run(ctx context.Context) error {
	defer close(l.out)

	if l.opts.Clear {
		args := append(l.deviceArgs(), "logcat", "-c")
		if out, err := exec.CommandContext(ctx, l.opts.ADB, args...).CombinedOutput(); err != nil {
			return fmt.Errorf("clear logcat: %w: %s", err, strings.TrimSpace(string(out)))
		}
	}

	cmd := exec.CommandContext(ctx, l.opts.ADB, l.Args()...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("adb stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start adb: %w", err)
	}
	l.log.Debug("adb started", zap.Int("pid", cmd.Process.Pid), zap.Strings("args", l.Args()))

	readErr := scanLines(ctx, stdout, l.Name(), l.out)
	if readErr != nil {
		// Unblock the child before waiting on it.
		_ = cmd.Process.Kill()
	}
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return nil
	}
	if readErr != nil {
		return readErr
	}
	if waitErr != nil {
		return fmt.Errorf("adb logcat exited: %w: %s", waitErr, strings.TrimSpace(stderr.String()))
	}
	l.log.Debug("adb exited")
	return nil
}
