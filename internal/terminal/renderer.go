package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"storypanel/internal/viewer"
)

const barWidth = 10

var (
	titleColor   = color.New(color.FgHiCyan, color.Bold)
	doneColor    = color.New(color.FgHiWhite)
	activeColor  = color.New(color.FgHiGreen)
	pendingColor = color.New(color.FgHiBlack)
	linkColor    = color.New(color.FgHiBlue, color.Underline)
	mutedColor   = color.New(color.FgYellow)
)

// Renderer draws viewer frames as text. A full block is printed when the
// slide changes; progress-only updates rewrite the bar line in place.
type Renderer struct {
	mu      sync.Mutex
	out     io.Writer
	lastKey string
	ended   bool
}

func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

// Render is shaped to be registered with Session.OnChange.
func (r *Renderer) Render(frame viewer.Frame, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !ok {
		if !r.ended {
			r.ended = true
			mutedColor.Fprintln(r.out, "\n-- end of stories --")
		}
		return
	}

	key := fmt.Sprintf("%d/%d", frame.GroupIndex, frame.SlideIndex)
	if key == r.lastKey {
		fmt.Fprintf(r.out, "\r%s", bars(frame.Bars))
		return
	}
	r.lastKey = key
	r.block(frame)
}

// Notice prints a message between frames.
func (r *Renderer) Notice(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mutedColor.Fprintf(r.out, "\n%s\n", msg)
}

func (r *Renderer) block(frame viewer.Frame) {
	fmt.Fprintln(r.out)
	titleColor.Fprintf(r.out, "(%s) %s", frame.GroupInitial, frame.GroupTitle)
	fmt.Fprintf(r.out, "  slide %d/%d  #%d  %ds\n", frame.SlideIndex+1, len(frame.Bars), frame.SlideID, frame.Duration)

	switch frame.Background.Kind {
	case viewer.BackgroundImage:
		fmt.Fprintf(r.out, "background: image %s\n", frame.Background.URL)
	case viewer.BackgroundColor:
		fmt.Fprintf(r.out, "background: color %s\n", frame.Background.Color)
	default:
		fmt.Fprintf(r.out, "background: none (%s)\n", frame.Background.Color)
	}
	if frame.Caption != "" {
		fmt.Fprintf(r.out, "caption: %s\n", frame.Caption)
	}
	for i, el := range frame.Elements {
		fmt.Fprintf(r.out, "  [%d] %s @ (%.0f, %.0f)", i, el.Label(), el.X, el.Y)
		if el.URL != "" {
			fmt.Fprint(r.out, " -> ")
			linkColor.Fprint(r.out, el.URL)
		}
		fmt.Fprintln(r.out)
	}
	fmt.Fprint(r.out, bars(frame.Bars))
}

func bars(segments []viewer.ProgressBar) string {
	var sb strings.Builder
	for i, b := range segments {
		if i > 0 {
			sb.WriteByte(' ')
		}
		switch b.State {
		case viewer.BarDone:
			sb.WriteString(doneColor.Sprint(strings.Repeat("=", barWidth)))
		case viewer.BarActive:
			filled := min(int(b.Percent*barWidth/100), barWidth)
			sb.WriteString(activeColor.Sprint(strings.Repeat("=", filled)))
			sb.WriteString(pendingColor.Sprint(strings.Repeat("-", barWidth-filled)))
		default:
			sb.WriteString(pendingColor.Sprint(strings.Repeat("-", barWidth)))
		}
	}
	return sb.String()
}
