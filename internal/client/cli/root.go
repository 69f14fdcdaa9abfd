package cli

import (
	"context"
	"fmt"
)

func (a *App) getStatus() string {
	s := a.email
	if a.role != "" {
		s += " " + a.role
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root runs the interactive session until the user exits or ctx ends.
func (a *App) Root(ctx context.Context) {
	a.println("Welcome to equitygate CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}
