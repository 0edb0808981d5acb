// Package device answers questions about the connected Android device by
// running adb: which pid belongs to an app, and which app is in front.
package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrAppNotFound is returned when no running process matches an app name.
	ErrAppNotFound = errors.New("cannot find application by provided name")
	// ErrNoCurrentApp is returned when the activity manager reports no task.
	ErrNoCurrentApp = errors.New("no app currently running")
)

// currentTaskRe matches the focused task record in `dumpsys activity activities`.
var currentTaskRe = regexp.MustCompile(`.*TaskRecord.*A[= ]([^ ^}]*)`)

// Runner executes a command and returns its standard output.
type Runner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
		}
		return out, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

// Resolver looks up process information through adb.
type Resolver struct {
	adb    string
	serial string
	run    Runner
}

// NewResolver returns a Resolver using the given adb binary ("adb" when
// empty) and device serial (any single device when empty).
func NewResolver(adb, serial string, run Runner) *Resolver {
	if adb == "" {
		adb = "adb"
	}
	if run == nil {
		run = ExecRunner{}
	}
	return &Resolver{adb: adb, serial: serial, run: run}
}

func (r *Resolver) shell(ctx context.Context, args ...string) (string, error) {
	full := make([]string, 0, len(args)+3)
	if r.serial != "" {
		full = append(full, "-s", r.serial)
	}
	full = append(full, "shell")
	full = append(full, args...)

	out, err := r.run.Output(ctx, r.adb, full...)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ResolveApp turns an app argument into a pid. Numeric input is taken as a
// pid as is; anything else is looked up in the device process list and the
// first process whose line mentions it wins.
func (r *Resolver) ResolveApp(ctx context.Context, app string) (int, error) {
	app = strings.TrimSpace(app)
	if pid, err := strconv.Atoi(app); err == nil {
		return pid, nil
	}
	if app == "" {
		return 0, ErrAppNotFound
	}

	out, err := r.shell(ctx, "ps")
	if err != nil {
		return 0, fmt.Errorf("list processes: %w", err)
	}
	if pid, ok := pidFromPS(out, app); ok {
		return pid, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrAppNotFound, app)
}

// CurrentApp returns the package of the app in the foreground and its pid.
// When the package is known but its process is not, the package is
// returned together with an ErrAppNotFound error.
func (r *Resolver) CurrentApp(ctx context.Context) (string, int, error) {
	out, err := r.shell(ctx, "dumpsys", "activity", "activities")
	if err != nil {
		return "", 0, fmt.Errorf("lookup current app: %w", err)
	}

	m := currentTaskRe.FindStringSubmatch(out)
	if m == nil || m[1] == "" {
		return "", 0, ErrNoCurrentApp
	}

	pkg := m[1]
	pid, err := r.ResolveApp(ctx, pkg)
	if err != nil {
		return pkg, 0, err
	}
	return pkg, pid, nil
}

// pidFromPS scans `ps` output for the first line containing name whose
// second column is a pid.
func pidFromPS(out, name string) (int, bool) {
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, name) {
			continue
		}
		// USER PID PPID ... NAME
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if pid, err := strconv.Atoi(fields[1]); err == nil {
			return pid, true
		}
	}
	return 0, false
}
