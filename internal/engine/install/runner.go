package install

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// Outcome is the single result of one subprocess invocation. There is no
// retry policy anywhere: one invocation, one outcome.
type Outcome struct {
	OK     bool
	Detail string
}

// runCommand spawns argv[0] with both output streams captured (never
// inherited), drains stdout and stderr concurrently line by line — first
// available line wins, so neither stream can starve the other — and routes
// every line through onLine as it arrives. It blocks until both streams hit
// EOF and the process has exited.
//
// A scanner error on either stream cancels the command and is a terminal
// Failure for this invocation.
func runCommand(ctx context.Context, dir string, argv []string, onLine func(string)) Outcome {
	if len(argv) == 0 {
		return Outcome{Detail: "empty command"}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	if dir != "" {
		cmd.Dir = dir
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Outcome{Detail: fmt.Sprintf("capture stdout: %v", err)}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Outcome{Detail: fmt.Sprintf("capture stderr: %v", err)}
	}
	if err := cmd.Start(); err != nil {
		return Outcome{Detail: fmt.Sprintf("spawn %s: %v", argv[0], err)}
	}

	lines := make(chan string, 256)
	readErrs := make(chan error, 2)

	var wg sync.WaitGroup
	readPipe := func(r io.Reader) {
		defer wg.Done()
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-runCtx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			readErrs <- err
			cancel()
		}
	}

	wg.Add(2)
	go readPipe(stdout)
	go readPipe(stderr)
	go func() {
		wg.Wait()
		close(lines)
	}()

	for line := range lines {
		onLine(line)
	}

	waitErr := cmd.Wait()

	select {
	case err := <-readErrs:
		return Outcome{Detail: fmt.Sprintf("reading command output: %v", err)}
	default:
	}

	if ctx.Err() != nil {
		return Outcome{Detail: "cancelled"}
	}
	if waitErr != nil {
		return Outcome{Detail: waitErr.Error()}
	}
	return Outcome{OK: true}
}
