// Package checker drives the external symbolic model checker: it writes
// a model to a uniquely-named temporary file, invokes the checker binary
// with a wall-clock timeout, and parses its verdict and counter-example
// trace (§4.9).
package checker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/segmentio/ksuid"
)

// Verdict is the outcome of one checker invocation.
type Verdict int

const (
	// Unknown covers a checker failure or output this package could not
	// parse — §7's "checker failure / unparsable output" case.
	Unknown Verdict = iota
	Success
	Failed
	TimedOut
)

func (v Verdict) String() string {
	switch v {
	case Success:
		return "success"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// State is one point of a counter-example trace: the full valuation at
// this step (each step's changed variables merged over the previous
// state), keyed "device.variable" -> value text.
type State map[string]string

// Result is everything a check invocation returns: the verdict, the
// full (delta-merged) counter-example trace when one exists, and the
// wall-clock time the checker actually ran.
type Result struct {
	Verdict Verdict
	Trace   []State
	Elapsed time.Duration
}

// Driver runs model text against the external checker binary.
type Driver struct {
	BinaryPath string
	BaseDir    string // temp directory for model files; "" uses os.TempDir
	Logger     hclog.Logger
}

// New returns a Driver logging under the given hclog.Logger, or a
// discard logger if nil, mirroring the teacher's own preference for
// hclog.Logger being threaded explicitly rather than held in a global.
func New(binaryPath string, logger hclog.Logger) *Driver {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Driver{BinaryPath: binaryPath, Logger: logger}
}

// Run writes model to a unique temp file, invokes the checker with bmc
// forwarded as `-bmc` when requested, and waits up to timeout. A
// timeout is not an error: it is reported as Result{Verdict: TimedOut},
// matching §4.9's "(filename, None, timeout)" return rather than an
// error value, since a timeout is routine outcome for a hard check, not
// a tool failure.
//
// Grounded on Controller.py's subprocess invocation pattern (unique
// `/tmp/.../state {ppid} {timestamp} {pid}.smv` filenames, wall-clock
// timeout via a killed subprocess) generalized to a ksuid-suffixed path
// per SPEC_FULL.md, since pid+timestamp collide under concurrent
// in-process workers sharing one pid in a way ksuid does not.
func (d *Driver) Run(ctx context.Context, model string, bmc bool, timeout time.Duration) (Result, error) {
	path, err := d.writeModel(model)
	if err != nil {
		return Result{}, err
	}
	defer os.Remove(path)

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{}
	if bmc {
		args = append(args, "-bmc")
	}
	args = append(args, path)

	start := time.Now()
	cmd := exec.CommandContext(runCtx, d.BinaryPath, args...)
	out, runErr := cmd.Output()
	elapsed := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		d.Logger.Warn("checker timed out", "model", path, "timeout", timeout)
		return Result{Verdict: TimedOut, Elapsed: elapsed}, nil
	}
	if runErr != nil {
		d.Logger.Error("checker invocation failed", "model", path, "error", runErr)
		return Result{Verdict: Unknown, Elapsed: elapsed}, nil
	}

	verdict, trace, err := Parse(string(out))
	if err != nil {
		d.Logger.Warn("checker output did not parse", "model", path, "error", err)
		return Result{Verdict: Unknown, Elapsed: elapsed}, nil
	}
	return Result{Verdict: verdict, Trace: trace, Elapsed: elapsed}, nil
}

func (d *Driver) writeModel(model string) (string, error) {
	dir := d.BaseDir
	if dir == "" {
		dir = os.TempDir()
	}
	name := fmt.Sprintf("safechain-%s.smv", ksuid.New().String())
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(model), 0o644); err != nil {
		return "", fmt.Errorf("checker: write model: %w", err)
	}
	return path, nil
}

// Parse reads the checker's textual report: a first line declaring the
// verdict, followed — only when a counter-example was found — by a
// sequence of "-> State: n <-" blocks each listing changed
// "device.variable = value" lines, which Parse merges onto the
// previous state so callers always see the full valuation at every
// step rather than only that step's delta, per §4.9's incremental
// trace format.
func Parse(output string) (Verdict, []State, error) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	var verdict Verdict
	var trace []State
	var current State

	found := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case !found:
			switch {
			case strings.Contains(line, "is true"):
				verdict = Success
			case strings.Contains(line, "is false"):
				verdict = Failed
			default:
				continue
			}
			found = true
		case strings.HasPrefix(line, "-> State:"):
			if current != nil {
				trace = append(trace, current)
			}
			next := State{}
			if len(trace) > 0 {
				for k, v := range trace[len(trace)-1] {
					next[k] = v
				}
			}
			current = next
		case strings.Contains(line, "="):
			if current == nil {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			current[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	if current != nil {
		trace = append(trace, current)
	}
	if err := scanner.Err(); err != nil {
		return Unknown, nil, err
	}
	if !found {
		return Unknown, nil, fmt.Errorf("checker: no verdict line found in output")
	}
	return verdict, trace, nil
}
