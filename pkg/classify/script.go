package classify

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/chenBenjamin97/squat-checker/pkg/segment"
)

const (
	scriptErrorPrefix = "ERROR"
	//maxNoiseLines is how many non-score lines (e.g. keras progress bars) may precede one reply
	maxNoiseLines = 64
)

var (
	errScriptReported = errors.New("python reported an error")
	errNotScores      = errors.New("not a scores line")
)

//ScriptModel keeps a python prediction process alive (the model is loaded once) and talks to it line by line:
//one line with the flattened sequence as comma separated floats in, one line of comma separated scores out.
//A response line starting with "ERROR" is reported as a prediction error, other lines that are not scores
//are log prints and skipped. Calls are serialized. After an I/O failure the model is broken and every
//later call fails.
type ScriptModel struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	broken error
}

//StartScriptModel starts given command as the prediction process
func StartScriptModel(ctx context.Context, name string, args ...string) (*ScriptModel, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("StartScriptModel: Error getting python's standard input, got '%w'", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("StartScriptModel: Error getting python's standard output, got '%w'", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("StartScriptModel: Error executing python's code, got '%w'", err)
	}

	return &ScriptModel{cmd: cmd, stdin: stdin, stdout: bufio.NewReader(stdout)}, nil
}

//Predict writes the sequence and reads its scores
func (m *ScriptModel) Predict(ctx context.Context, seq segment.FeatureSequence) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.broken != nil {
		return nil, m.broken
	}

	if _, err := io.WriteString(m.stdin, encodeSequence(seq)+"\n"); err != nil {
		m.broken = fmt.Errorf("ScriptModel: Could not write sequence, got '%w'", err)
		return nil, m.broken
	}

	for skipped := 0; ; skipped++ {
		line, err := m.stdout.ReadString('\n')
		if err != nil {
			m.broken = fmt.Errorf("ScriptModel: Could not read scores, got '%w'", err)
			return nil, m.broken
		}

		scores, err := decodeScores(line)
		if !errors.Is(err, errNotScores) {
			return scores, err
		}

		if skipped == maxNoiseLines {
			//replies can not be matched to requests anymore
			m.broken = fmt.Errorf("ScriptModel: no scores after %d lines, last '%s'", maxNoiseLines+1, strings.TrimSpace(line))
			return nil, m.broken
		}
	}
}

//Close ends the prediction process by closing its standard input
func (m *ScriptModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stdin.Close()
	if err := m.cmd.Wait(); err != nil {
		return fmt.Errorf("ScriptModel: Error waiting python's process, got '%w'", err)
	}
	return nil
}

func encodeSequence(seq segment.FeatureSequence) string {
	var sb strings.Builder
	for i, row := range seq {
		for j, v := range row {
			if i > 0 || j > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
	}
	return sb.String()
}

//decodeScores parses one reply line. Lines reporting a python error wrap errScriptReported, lines which are
//not comma separated floats wrap errNotScores.
func decodeScores(line string) ([]float64, error) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, scriptErrorPrefix) {
		return nil, fmt.Errorf("ScriptModel: %w '%s'", errScriptReported, strings.TrimSpace(strings.TrimPrefix(line, scriptErrorPrefix)))
	}

	if line == "" {
		return nil, fmt.Errorf("ScriptModel: %w: empty line", errNotScores)
	}

	fields := strings.Split(line, ",")
	scores := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("ScriptModel: %w: could not parse '%s', got '%v'", errNotScores, f, err)
		}
		scores = append(scores, v)
	}

	return scores, nil
}
