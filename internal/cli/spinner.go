package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// Spinner shows a running layout on stderr: the input, the graph size once
// it is known and the engine stage currently executing. It stops when its
// context is cancelled.
type Spinner struct {
	input   string
	nodes   int
	edges   int
	stage   string
	out     io.Writer
	parent  context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	stopped chan struct{}
	frames  []string
	drawn   int
	mu      sync.Mutex
}

func newSpinner(ctx context.Context, input string) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		input:   input,
		nodes:   -1,
		out:     os.Stderr,
		parent:  ctx,
		ctx:     spinnerCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	}
}

// SetGraph records the size of the graph being laid out.
func (s *Spinner) SetGraph(nodes, edges int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes, s.edges = nodes, edges
}

// SetPhase records the engine phase that just started. It has the shape of
// [pipeline.Options.Progress] and may be called from any goroutine.
func (s *Spinner) SetPhase(phase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stage = stageOf(phase, s.stage)
}

// stageOf groups engine phases into the stages shown to the user. Phases
// between two stages keep the current one.
func stageOf(phase, current string) string {
	switch phase {
	case "makeSpaceForEdgeLabels", "removeSelfEdges", "acyclic", "nestingGraph.run", "rank":
		return "ranking"
	case "order":
		return "ordering"
	case "position":
		return "positioning"
	case "removeBorderNodes", "normalize.undo", "translateGraph", "assignNodeIntersects":
		return "routing edges"
	}
	return current
}

// message renders the status line. Callers hold mu.
func (s *Spinner) message() string {
	var b strings.Builder
	b.WriteString("Laying out ")
	b.WriteString(s.input)
	if s.nodes >= 0 {
		fmt.Fprintf(&b, " (%d nodes, %d edges)", s.nodes, s.edges)
	}
	if s.stage != "" {
		b.WriteString(": ")
		b.WriteString(s.stage)
	}
	b.WriteString("...")
	return b.String()
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		i := 0
		for {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-s.done:
				return
			case <-ticker.C:
				s.draw(s.frames[i%len(s.frames)])
				i++
			}
		}
	}()
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.message()
	// A shorter line must blank out the tail of the previous one.
	pad := max(0, s.drawn-utf8.RuneCountInString(msg)-2)
	fmt.Fprintf(s.out, "\r%s %s%s", styleIconSpinner.Render(frame), StyleDim.Render(msg), strings.Repeat(" ", pad))
	s.drawn = max(s.drawn, utf8.RuneCountInString(msg)+2)
}

// Stop stops the spinner and clears the line. It is safe to call twice.
func (s *Spinner) Stop() {
	s.cancel()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	<-s.stopped
	s.clearLine()
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drawn == 0 {
		return
	}
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", s.drawn+2))
	s.drawn = 0
}

// StopWithSuccess stops the spinner and shows a success message.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess("%s", message)
}

// StopWithError stops the spinner and shows an error message.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled reports whether the context the spinner was created with is
// done, as on Ctrl-C. Stop alone does not cancel it.
func (s *Spinner) Cancelled() bool {
	return s.parent.Err() != nil
}
