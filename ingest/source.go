package ingest

import (
	"fmt"
	"io"
	"os/exec"
)

// LineSource supplies the raw tick stream for one job. End of stream is
// success; any read error is fatal to the job.
type LineSource interface {
	Open() (io.ReadCloser, error)
}

// CommandSource streams lines from the external market-data reader,
// invoked as `twxm <date> opra <TICKER>_*`.
type CommandSource struct {
	Date   string
	Ticker string
}

func (s CommandSource) Open() (io.ReadCloser, error) {
	cmd := exec.Command("twxm", s.Date, "opra", s.Ticker+"_*")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to pipe twxm stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start twxm: %w", err)
	}
	return &commandStream{stdout: stdout, cmd: cmd}, nil
}

type commandStream struct {
	stdout io.ReadCloser
	cmd    *exec.Cmd
}

func (s *commandStream) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

func (s *commandStream) Close() error {
	s.stdout.Close()
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("twxm exited abnormally: %w", err)
	}
	return nil
}

// ReaderSource adapts any reader into a LineSource. Used by tests and
// replay from capture files.
type ReaderSource struct {
	R io.Reader
}

func (s ReaderSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(s.R), nil
}
