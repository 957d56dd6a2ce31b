package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// TerminalInterface is the console the operator answers prompts on
type TerminalInterface struct {
	reader *bufio.Reader
	out    io.Writer
	logger *logrus.Logger

	once  sync.Once
	lines chan string
	errs  chan error
}

func NewTerminalInterface(in io.Reader, out io.Writer, logger *logrus.Logger) *TerminalInterface {
	return &TerminalInterface{
		reader: bufio.NewReader(in),
		out:    out,
		logger: logger,
		lines:  make(chan string),
		errs:   make(chan error, 1),
	}
}

// readLoop feeds lines to whoever is waiting; a prompt abandoned on cancellation
// does not swallow the next line
func (t *TerminalInterface) readLoop() {
	for {
		line, err := t.reader.ReadString('\n')
		if err != nil {
			if line = strings.TrimSpace(line); line != "" {
				t.lines <- line
			}
			t.errs <- err
			return
		}
		t.lines <- strings.TrimSpace(line)
	}
}

// ReadLine - waits for a line of input
func (t *TerminalInterface) ReadLine(ctx context.Context) (string, error) {
	t.once.Do(func() { go t.readLoop() })

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line := <-t.lines:
		return line, nil
	case err := <-t.errs:
		// keep the error for the next reader
		t.errs <- err
		if err == io.EOF {
			return "", fmt.Errorf("input closed: %w", err)
		}
		return "", err
	}
}

// Pause - shows message and blocks until the operator presses Enter
func (t *TerminalInterface) Pause(ctx context.Context, message string) error {
	t.logger.WithField("prompt", message).Debug("Waiting for the operator")
	fmt.Fprintf(t.out, "\n👉 %s\n", message)
	fmt.Fprint(t.out, "Press Enter to continue...")

	_, err := t.ReadLine(ctx)
	fmt.Fprintln(t.out)
	return err
}

// Banner - prints a section title
func (t *TerminalInterface) Banner(title string) {
	line := strings.Repeat("=", 60)
	fmt.Fprintf(t.out, "%s\n%s\n%s\n", line, title, line)
}

// Println - prints a line to the console
func (t *TerminalInterface) Println(a ...interface{}) {
	fmt.Fprintln(t.out, a...)
}
