package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/dmitrijs2005/equitygate/internal/client/client"
	"github.com/dmitrijs2005/equitygate/internal/client/config"
	"github.com/dmitrijs2005/equitygate/internal/common"
)

type App struct {
	config *config.Config
	client client.Client
	reader *bufio.Reader
	out    io.Writer
	now    func() time.Time

	email string
	role  string
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}
	return newApp(c, apiClient, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, cl client.Client, in io.Reader, out io.Writer) *App {
	return &App{config: c, client: cl, reader: bufio.NewReader(in), out: out, now: time.Now}
}

func (a *App) Run(ctx context.Context) {
	defer a.client.Close()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.client.LoggedIn()
}

// callCtx bounds a single remote call by the configured request timeout.
func (a *App) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

func (a *App) prompt(text string) (string, error) {
	return GetSimpleText(a.reader, text, a.out)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

// report prints err in a user-friendly form and returns it unchanged.
func (a *App) report(err error) error {
	var ve *common.ValidationError
	var rl *common.RateLimitError

	switch {
	case errors.As(err, &ve):
		a.println("Validation failed:")
		names := make([]string, 0, len(ve.Fields))
		for name := range ve.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(a.out, "  %s: %s\n", name, ve.Fields[name])
		}
	case errors.As(err, &rl):
		fmt.Fprintf(a.out, "Too many attempts, try again in %s\n", rl.RetryAfter(a.now()).Round(time.Second))
	case errors.Is(err, client.ErrUnavailable):
		a.println("Server unavailable, try again later")
	case errors.Is(err, client.ErrNotLoggedIn):
		a.println("Please log in first")
	default:
		a.println("Error:", err)
	}
	return err
}
