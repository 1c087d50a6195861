package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"

	"github.com/jrsteele09/go-academy-client/apiclient"
	"github.com/jrsteele09/go-academy-client/internal/app"
	"github.com/jrsteele09/go-academy-client/internal/config"
	apperrors "github.com/jrsteele09/go-academy-client/internal/errors"
	"github.com/jrsteele09/go-academy-client/internal/validation"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// cli holds the state shared by the commands of one invocation
type cli struct {
	cfg     config.Config
	in      io.Reader
	out     io.Writer
	errOut  io.Writer
	printer *printer
	app     *app.App
	appOpts []app.Option

	noColor bool
	verbose bool
}

func newCLI(cfg config.Config, in io.Reader, out, errOut io.Writer, appOpts ...app.Option) *cli {
	return &cli{
		cfg:     cfg,
		in:      in,
		out:     out,
		errOut:  errOut,
		appOpts: appOpts,
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "academyctl",
		Short: "Command line client for the academy API",
		Long: `academyctl talks to the academy REST API with a stored session.

Example usage:
  academyctl login --email coach@example.com
  academyctl teams list
  academyctl players list --team u12 --sort jersey
  academyctl qr TRAINING_ID
  academyctl request GET /auth/me`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			c.printer.Banner(c.cfg.GetAppName())
			return cmd.Help()
		},
	}
	root.SetOut(c.out)
	root.SetErr(c.errOut)
	root.SetIn(c.in)

	root.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "disable colored output")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log requests at debug level")

	root.AddCommand(
		newLoginCmd(c),
		newLogoutCmd(c),
		newWhoamiCmd(c),
		newRequestCmd(c),
		newTeamsCmd(c),
		newPlayersCmd(c),
		newQRCmd(c),
		newCheckInCmd(c),
		newAttendanceCmd(c),
		newCalendarCmd(c),
		newInsightsCmd(c),
		newDashboardCmd(c),
	)
	return root
}

func (c *cli) init(ctx context.Context) error {
	c.printer = newPrinter(c.out, c.errOut, c.noColor)
	if c.app != nil {
		return nil
	}

	logger := app.NewLogger(c.cfg, c.errOut)
	if c.verbose {
		logger = logger.Level(zerolog.DebugLevel)
	}

	opts := append([]app.Option{
		app.WithLogger(logger),
		app.WithSessionInvalidated(c.sessionInvalidated),
	}, c.appOpts...)

	a, err := app.New(ctx, c.cfg, opts...)
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

func (c *cli) sessionInvalidated(error) {
	c.printer.Warning("Session expired, log in again with `academyctl login` (login route %s)", c.cfg.GetLoginRoute())
}

// report prints err with whatever detail the error carries
func (c *cli) report(err error) {
	p := c.printer
	if p == nil {
		p = newPrinter(c.out, c.errOut, true)
	}

	var fields validation.FieldErrors
	if errors.As(err, &fields) {
		p.Error("Invalid input")
		for _, field := range slices.Sorted(maps.Keys(fields)) {
			p.Hint("%s", fields[field])
		}
		return
	}

	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) {
		p.Error("%v", err)
		if errors.Is(err, apperrors.ErrNotLoggedIn) {
			p.Hint("Run `academyctl login` first")
		}
		return
	}

	switch apiErr.Kind {
	case apiclient.KindAuthInvalid:
		p.Error("Session ended: %v", apiErr.Err)
	case apiclient.KindAuthExpired:
		p.Error("Not authorised for %s %s", apiErr.Method, apiErr.Path)
		p.Hint("Run `academyctl login` to start a new session")
	case apiclient.KindNetworkTransient:
		p.Error("No response from %s %s: %v", apiErr.Method, apiErr.Path, apiErr.Err)
		if apiErr.Timeout() {
			p.Hint("The request timed out, ACADEMY_TIMEOUT sets the limit")
		}
	default:
		p.Error("%s %s failed with %d %s", apiErr.Method, apiErr.Path, apiErr.StatusCode, http.StatusText(apiErr.StatusCode))
		var payload apiclient.ValidationErrors
		if apiErr.Decode(&payload) == nil && len(payload.Errors) > 0 {
			for _, ve := range payload.Errors {
				p.Hint("%s", formatValidationError(ve))
			}
		}
		if apiErr.RetryAfter > 0 {
			p.Hint("Retry after %s", apiErr.RetryAfter)
		}
	}
}

func formatValidationError(ve apiclient.ValidationError) string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}
