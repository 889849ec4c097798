package pose

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

//Estimator detects a pose in one encoded image frame
type Estimator interface {
	Estimate(ctx context.Context, image []byte) (Observation, error)
	Close() error
}

//StreamEstimator keeps a pose estimation process alive and talks to it line by line:
//each request is one base64 encoded image line, each response is one landmarks JSON line.
type StreamEstimator struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
}

//StartStreamEstimator starts given command (usually python3 and the stream script) as the estimation process
func StartStreamEstimator(ctx context.Context, name string, args ...string) (*StreamEstimator, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("StartStreamEstimator: Error getting standard input, got '%w'", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("StartStreamEstimator: Error getting standard output, got '%w'", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("StartStreamEstimator: Error executing '%s', got '%w'", name, err)
	}

	return &StreamEstimator{cmd: cmd, stdin: stdin, stdout: bufio.NewReaderSize(stdout, 64*1024)}, nil
}

//Estimate sends one encoded image (e.g. JPEG bytes) and waits for its landmarks
func (e *StreamEstimator) Estimate(ctx context.Context, image []byte) (Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := io.WriteString(e.stdin, base64.StdEncoding.EncodeToString(image)+"\n"); err != nil {
		return nil, fmt.Errorf("StreamEstimator: Could not write frame, got '%w'", err)
	}

	line, err := e.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("StreamEstimator: Could not read landmarks, got '%w'", err)
	}

	return DecodeLandmarks(line)
}

//Close ends the estimation process by closing its standard input
func (e *StreamEstimator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stdin.Close()
	if err := e.cmd.Wait(); err != nil {
		return fmt.Errorf("StreamEstimator: Error waiting process, got '%w'", err)
	}
	return nil
}
