// Package linear renders task execution as prefixed, line-buffered output.
package linear

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/scribe/internal/core/ports"
	"go.trai.ch/scribe/internal/ui/output"
	"go.trai.ch/scribe/internal/ui/style"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer prints one "[task] line" per complete output line. Partial lines wait for their
// newline or for the task to finish.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	output *termenv.Output

	mu    sync.Mutex
	tasks map[string]*taskState
}

type taskState struct {
	name   string
	start  time.Time
	buffer bytes.Buffer
}

// NewRenderer creates a Renderer. Nil writers default to the process streams.
func NewRenderer(stdout, stderr io.Writer) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return &Renderer{
		stdout: stdout,
		stderr: stderr,
		output: output.NewWithProfile(stderr, colorProfile),
		tasks:  make(map[string]*taskState),
	}
}

// CI logs keep basic colours even without a TTY.
func colorProfile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	return termenv.ANSI
}

// OnPlanEmit prints the planned tasks.
func (r *Renderer) OnPlanEmit(tasks, targets []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(targets) == 0 {
		_, _ = fmt.Fprintf(r.stderr, "Running %d task(s): %s\n", len(tasks), strings.Join(tasks, ", "))
		return
	}
	_, _ = fmt.Fprintf(r.stderr, "Running %d task(s) for %s\n", len(tasks), strings.Join(targets, ", "))
}

// OnTaskStart prints a start line for the task.
func (r *Renderer) OnTaskStart(spanID, _, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks[spanID] = &taskState{name: name, start: startTime}
	prefix := r.output.String(fmt.Sprintf("[%s]", name)).Faint().String()
	_, _ = fmt.Fprintf(r.stderr, "%s Starting...\n", prefix)
}

// OnTaskLog prints the complete lines in data and buffers the rest.
func (r *Renderer) OnTaskLog(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[spanID]
	if !ok {
		return
	}

	task.buffer.Write(data)
	for {
		i := bytes.IndexByte(task.buffer.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := task.buffer.Next(i + 1)
		r.printLineLocked(task.name, line)
	}
}

// OnTaskComplete flushes the task's partial line and prints its outcome.
func (r *Renderer) OnTaskComplete(spanID string, endTime time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[spanID]
	if !ok {
		return
	}
	r.flushTaskLocked(task)
	delete(r.tasks, spanID)

	duration := endTime.Sub(task.start).Round(time.Millisecond)
	prefix := fmt.Sprintf("[%s]", task.name)
	if err != nil {
		symbol := r.output.String(style.Cross).Foreground(termenv.ANSIRed).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s Failed after %v: %v\n", prefix, symbol, duration, err)
		return
	}
	symbol := r.output.String(style.Check).Foreground(termenv.ANSIGreen).String()
	_, _ = fmt.Fprintf(r.stderr, "%s %s Completed in %v\n", prefix, symbol, duration)
}

// Flush prints every buffered partial line.
func (r *Renderer) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, task := range r.tasks {
		r.flushTaskLocked(task)
	}
	return nil
}

func (r *Renderer) flushTaskLocked(task *taskState) {
	if task.buffer.Len() > 0 {
		r.printLineLocked(task.name, task.buffer.Bytes())
		task.buffer.Reset()
	}
}

func (r *Renderer) printLineLocked(name string, line []byte) {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) == 0 {
		return
	}
	_, _ = fmt.Fprintf(r.stdout, "[%s] %s\n", name, line)
}
