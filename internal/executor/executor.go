package executor

import (
	"bufio"
	"context"
	"io"
	"log"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"complex-tracker/internal/config"

	"github.com/pkg/errors"
)

// killGrace is how long a collector gets after SIGTERM before SIGKILL.
const killGrace = 10 * time.Second

// Result describes a finished collector run
type Result struct {
	Success  bool
	ExitCode int
	TimedOut bool
	Duration time.Duration
	Err      error
}

// Executor launches the external collector process for a crawl job
type Executor struct {
	command string
	script  string
	baseDir string
}

func New(cfg *config.CrawlerConfig) *Executor {
	return &Executor{
		command: cfg.Command,
		script:  cfg.Script,
		baseDir: cfg.BaseDir,
	}
}

// Run executes the collector for the given job and waits for it to exit.
// On timeout the process receives SIGTERM first so it can flush partial
// results, then SIGKILL after a grace period.
func (e *Executor) Run(ctx context.Context, jobID string, complexNos []string, timeout time.Duration) Result {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{e.script, strings.Join(complexNos, ","), jobID}
	cmd := exec.CommandContext(runCtx, e.command, args...)
	cmd.Dir = e.baseDir
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = killGrace

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{Err: errors.Wrap(err, "stdout pipe")}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{Err: errors.Wrap(err, "stderr pipe")}
	}

	started := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{Err: errors.Wrap(err, "start collector")}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go streamOutput(&wg, jobID, "stdout", stdout)
	go streamOutput(&wg, jobID, "stderr", stderr)
	wg.Wait()

	waitErr := cmd.Wait()
	duration := time.Since(started)

	result := Result{
		ExitCode: cmd.ProcessState.ExitCode(),
		Duration: duration,
	}

	if runCtx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		result.Err = errors.Errorf("collector timed out after %s", timeout)
		return result
	}

	if waitErr != nil {
		result.Err = errors.Wrapf(waitErr, "collector exited with code %d", result.ExitCode)
		return result
	}

	result.Success = true
	return result
}

func streamOutput(wg *sync.WaitGroup, jobID, name string, r io.Reader) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		log.Printf("Crawler[%s] %s: %s", jobID, name, scanner.Text())
	}
}
