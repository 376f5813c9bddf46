// Package main is a terminal client for the storefront registration API.
// The active session is kept in a JSON file, so a second run while signed in
// goes straight to the redirect target.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/spf13/cobra"
	"github.com/tendant/simple-storefront/pkg/config"
	"github.com/tendant/simple-storefront/pkg/notification"
	"github.com/tendant/simple-storefront/pkg/register"
	"github.com/tendant/simple-storefront/pkg/registerclient"
	"github.com/tendant/simple-storefront/pkg/sessions"
)

type options struct {
	apiURL      string
	apiPath     string
	timeout     time.Duration
	sessionFile string
	redirect    string
	name        string
	email       string
	logout      bool
	verbose     bool
}

func main() {
	config.LoadEnvFile()
	os.Exit(execute(newRootCmd(), os.Stderr))
}

// reportedError is a failure the form already showed through its notifier.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// execute runs cmd and returns the exit code. Every error is printed once.
func execute(cmd *cobra.Command, errOut io.Writer) int {
	err := cmd.Execute()
	if err == nil {
		return 0
	}
	var reported reportedError
	if !errors.As(err, &reported) {
		fmt.Fprintf(errOut, "Error: %v\n", err)
	}
	return 1
}

func newRootCmd() *cobra.Command {
	var apiCfg config.RegisterAPIConfig
	if err := cleanenv.ReadEnv(&apiCfg); err != nil {
		slog.Warn("Failed to read registration API config", "error", err)
	}

	opts := options{}
	cmd := &cobra.Command{
		Use:           "register",
		Short:         "Create a storefront account from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return run(ctx, opts, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.apiURL, "api", apiCfg.URL, "registration API base URL")
	flags.StringVar(&opts.apiPath, "path", apiCfg.Path, "registration endpoint path")
	flags.DurationVar(&opts.timeout, "timeout", apiCfg.Timeout, "request timeout")
	flags.StringVar(&opts.sessionFile, "session-file", defaultSessionFile(), "where the active session is kept")
	flags.StringVar(&opts.redirect, "redirect", register.DefaultRedirect, "page to continue to after registering")
	flags.StringVar(&opts.name, "name", "", "name (prompted when empty)")
	flags.StringVar(&opts.email, "email", "", "email address (prompted when empty)")
	flags.BoolVar(&opts.logout, "logout", false, "forget the active session and exit")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "simple-storefront", "session.json")
}

func run(ctx context.Context, opts options, in io.Reader, out, errOut io.Writer) error {
	logCfg := config.LogConfig{Format: "text", Level: "info"}
	if opts.verbose {
		logCfg.Level = "debug"
	}
	logger := config.NewLogger(errOut, logCfg)

	store, err := sessions.NewFileActiveStore(opts.sessionFile)
	if err != nil {
		return err
	}

	if opts.logout {
		if err := store.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Signed out.")
		return nil
	}

	nav := &printNavigator{out: out}
	form := register.NewForm(
		register.WithRegistrar(registerclient.New(opts.apiURL,
			registerclient.WithPath(opts.apiPath),
			registerclient.WithTimeout(opts.timeout),
			registerclient.WithLogger(logger),
		)),
		register.WithSessionStore(store),
		register.WithNavigator(nav),
		register.WithNotifier(notification.NewLogNotifier(logger)),
		register.WithRedirect(opts.redirect),
		register.WithLogger(logger),
	)
	form.Mount(ctx)
	defer form.Unmount()

	if nav.navigated() {
		session, _ := store.GetSession(ctx)
		fmt.Fprintf(out, "Already signed in as %s.\n", session.Email)
		return nil
	}

	p := newPrompter(in, out)
	fields, err := p.fields(opts.name, opts.email)
	if err != nil {
		return err
	}
	form.SetName(fields.Name)
	form.SetEmail(fields.Email)
	form.SetPassword(fields.Password)
	form.SetConfirmPassword(fields.ConfirmPassword)

	if err := form.Submit(ctx); err != nil {
		if errors.Is(err, register.ErrUnmounted) || errors.Is(err, register.ErrNotConfigured) || errors.Is(err, register.ErrSubmissionInFlight) {
			return err
		}
		return reportedError{err: err}
	}

	if session, ok := store.GetSession(ctx); ok {
		fmt.Fprintf(out, "Signed in as %s <%s>.\n", session.Name, session.Email)
	}
	return nil
}

// printNavigator shows the page the user would be sent to.
type printNavigator struct {
	out    io.Writer
	target string
}

func (n *printNavigator) NavigateTo(path string) {
	n.target = path
	fmt.Fprintf(n.out, "Continue at %s\n", path)
}

func (n *printNavigator) navigated() bool {
	return n.target != ""
}
