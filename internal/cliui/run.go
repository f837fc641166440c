package cliui

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Run drives wu:watch: a full bubbletea program when interactive, or a
// plain re-printed snapshot on a timer otherwise (§4.6's agent-mode output
// rule applies the same way here as it does to gate output).
func Run(ctx context.Context, interactive bool, refresh RefreshFunc, interval time.Duration, out io.Writer) error {
	if interactive {
		p := tea.NewProgram(NewModel(refresh, interval))
		_, err := p.Run()
		return err
	}
	return runPlain(ctx, refresh, interval, out)
}

func runPlain(ctx context.Context, refresh RefreshFunc, interval time.Duration, out io.Writer) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	printOnce := func() error {
		rows, err := refresh()
		if err != nil {
			fmt.Fprintf(out, "error refreshing status: %v\n", err)
			return nil
		}
		fmt.Fprint(out, PlainRender(rows))
		return nil
	}

	if err := printOnce(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printOnce(); err != nil {
				return err
			}
		}
	}
}
