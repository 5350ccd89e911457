package harness

import (
	"bytes"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

var (
	noteColor   = color.New(color.FgCyan)
	stdoutColor = color.New(color.FgYellow)
	stderrColor = color.New(color.FgHiRed)
)

// logMu serializes harness notes and mirrored fixture lines.
var logMu sync.Mutex

func (r *Runner) logf(pattern string, args ...interface{}) {
	if !r.Verbose {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	noteColor.Fprintf(os.Stderr, "[harness] "+pattern+"\n", args...) // nolint: errcheck
}

// captureWriter keeps raw child output in buf and, in verbose mode,
// also mirrors it line by line to the harness log.
func (r *Runner) captureWriter(buf *bytes.Buffer, c *color.Color) io.Writer {
	if !r.Verbose {
		return buf
	}
	return io.MultiWriter(buf, &lineMirror{c: c})
}

// lineMirror prints each complete line of child output in the stream's
// color; partial lines are held until their newline arrives.
type lineMirror struct {
	c   *color.Color
	buf []byte
}

func (m *lineMirror) Write(p []byte) (int, error) {
	m.buf = append(m.buf, p...)
	for {
		i := bytes.IndexByte(m.buf, '\n')
		if i < 0 {
			return len(p), nil
		}
		line := string(m.buf[:i])
		m.buf = m.buf[i+1:]

		logMu.Lock()
		m.c.Fprintln(os.Stderr, "[fixture] "+line) // nolint: errcheck
		logMu.Unlock()
	}
}
