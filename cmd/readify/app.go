package main

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/jrsteele09/readify/api"
	"github.com/jrsteele09/readify/guard"
	"github.com/jrsteele09/readify/notify"
	"github.com/jrsteele09/readify/server"
	"github.com/jrsteele09/readify/sessions"
	"github.com/jrsteele09/readify/sessions/filestore"
	"github.com/spf13/cobra"
)

const (
	// routeAnnotation names the web route a command stands in for.
	routeAnnotation = "route"
	terminalScope   = "terminal"
)

// app is the state shared by every command of one invocation.
type app struct {
	apiURL        string
	dataDir       string
	timeout       time.Duration
	credentialKey string
	mediaBase     string

	api   *api.Client
	store *sessions.Store
	guard *guard.Routes
	out   io.Writer
}

func (a *app) open(cmd *cobra.Command) error {
	repo, err := filestore.New(filepath.Join(a.dataDir, "terminal"))
	if err != nil {
		return fmt.Errorf("open session folder: %w", err)
	}
	var storage sessions.Repo = repo
	if a.credentialKey != "" {
		key, err := sessions.KeyFromHex(a.credentialKey)
		if err != nil {
			return fmt.Errorf("CREDENTIAL_KEY: %w", err)
		}
		if storage, err = sessions.Sealed(storage, key); err != nil {
			return err
		}
	}
	if storage, err = sessions.Scope(storage, terminalScope); err != nil {
		return err
	}

	a.out = cmd.OutOrStdout()
	a.guard = server.ProtectedRoutes()
	a.api = api.New(a.apiURL, api.WithHTTPClient(&http.Client{Timeout: a.timeout}))
	a.store, err = sessions.Open(cmd.Context(), storage, a.api,
		sessions.WithNotifier(printer{w: cmd.ErrOrStderr()}),
	)
	return err
}

// enter applies the route guard to the command about to run.
func (a *app) enter(cmd *cobra.Command) error {
	route, ok := cmd.Annotations[routeAnnotation]
	if !ok {
		return nil
	}
	decision := a.guard.Decide(guard.StateFor(a.store.Authenticated()), route)
	if !decision.Allow {
		return fmt.Errorf("%s requires a session, run `readify login` first", cmd.CommandPath())
	}
	return nil
}

// client acts for the saved session.
func (a *app) client() *api.Client {
	return a.api.WithCredential(a.store.Credential())
}

func (a *app) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

func route(path string) map[string]string {
	return map[string]string{routeAnnotation: path}
}

// printer shows notifications on the terminal.
type printer struct {
	w io.Writer
}

func (p printer) Notify(n notify.Notification) {
	if n.Text != "" {
		_, _ = fmt.Fprintf(p.w, "[%s] %s: %s\n", n.Level, n.Title, n.Text)
		return
	}
	_, _ = fmt.Fprintf(p.w, "[%s] %s\n", n.Level, n.Title)
}
