package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cast"

	"storypanel/internal/viewer"
)

var ErrUnknownCommand = errors.New("unknown command")

const Help = "n next | p previous | t <x> [y] tap | l <i> activate element | q quit"

// Player drives a session from line commands read from in.
type Player struct {
	session  *viewer.Session
	renderer *Renderer
	in       io.Reader
}

func NewPlayer(session *viewer.Session, renderer *Renderer, in io.Reader) *Player {
	return &Player{session: session, renderer: renderer, in: in}
}

// Run plays until the session ends, the user quits or ctx is done.
func (p *Player) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.session.OnChange(p.renderer.Render)
	p.renderer.Render(p.session.Frame())

	timerErr := make(chan error, 1)
	go func() { timerErr <- p.session.Run(ctx) }()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(p.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			p.session.Close()
			return nil
		case <-p.session.Done():
			return nil
		case err := <-timerErr:
			if err != nil && ctx.Err() == nil {
				return err
			}
		case line, ok := <-lines:
			if !ok {
				// input closed, keep playing until the end
				lines = nil
				continue
			}
			quit, err := p.Handle(line)
			if err != nil {
				p.renderer.Notice(fmt.Sprintf("%s (%s)", err, Help))
			}
			if quit {
				p.session.Close()
				return nil
			}
		}
	}
}

// Handle applies one command line to the session.
func (p *Player) Handle(line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	switch fields[0] {
	case "n":
		p.session.AdvanceNext()
	case "p":
		p.session.AdvancePrevious()
	case "q":
		return true, nil
	case "t":
		if len(fields) < 2 {
			return false, fmt.Errorf("%w: t needs x", ErrUnknownCommand)
		}
		x, err := cast.ToFloat64E(fields[1])
		if err != nil {
			return false, fmt.Errorf("bad x %q: %w", fields[1], err)
		}
		if len(fields) > 2 {
			y, err := cast.ToFloat64E(fields[2])
			if err != nil {
				return false, fmt.Errorf("bad y %q: %w", fields[2], err)
			}
			p.session.Tap(x, y)
			return false, nil
		}
		p.session.TapZone(x)
	case "l":
		if len(fields) < 2 {
			return false, fmt.Errorf("%w: l needs an element index", ErrUnknownCommand)
		}
		i, err := cast.ToIntE(fields[1])
		if err != nil {
			return false, fmt.Errorf("bad element index %q: %w", fields[1], err)
		}
		if !p.session.ActivateElement(i) {
			p.renderer.Notice(fmt.Sprintf("element %d is not a link", i))
		}
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
	}
	return false, nil
}
