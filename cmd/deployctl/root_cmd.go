package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"plugfolio-deployer/internal/bootstrap"
	"plugfolio-deployer/internal/config"
	"plugfolio-deployer/internal/logger"
)

type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func newUsageError(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

var errorWantedNoArgs = newUsageError("expected no (non-flag) arguments")

type rootOpts struct {
	cfg *config.Config
	log logger.Logger

	// wire is replaced in tests.
	wire func(*config.Config, logger.Logger) (*bootstrap.App, error)
	app  *bootstrap.App
}

func newRoot() *rootOpts {
	return &rootOpts{wire: bootstrap.New}
}

var rootLongHelp = strings.TrimSpace(`
deployctl drives the plugfolio deployment pipeline from a shell.

Workflow:
  deployctl params put RootDomain plugfolio.io         # Seed configuration.
  deployctl trigger https://github.com/dave/site.git   # Start an execution.
  deployctl stage read-manifest < state.json           # Re-run one stage.
  deployctl run --repo-url https://github.com/dave/site.git
`)

func (opts *rootOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "deployctl",
		Long:              rootLongHelp,
		SilenceUsage:      true,
		PersistentPreRunE: opts.PersistentPreRunE,
	}

	cmd.AddCommand(
		newTrigger(opts).Command(),
		newStage(opts).Command(),
		newRun(opts).Command(),
		newToken(opts).Command(),
		newParams(opts).Command(),
		newRecords(opts).Command(),
	)

	return cmd
}

func (opts *rootOpts) PersistentPreRunE(cmd *cobra.Command, _ []string) error {
	opts.cfg = config.Load()
	opts.log = logger.NewWithWriter(cmd.ErrOrStderr(), opts.cfg.LogLevel, opts.cfg.LogFormat)
	return nil
}

// App wires the pipeline on first use; token does not need it.
func (opts *rootOpts) App() (*bootstrap.App, error) {
	if opts.app != nil {
		return opts.app, nil
	}

	app, err := opts.wire(opts.cfg, opts.log)
	if err != nil {
		return nil, err
	}
	opts.app = app
	return app, nil
}

func (opts *rootOpts) Close() error {
	if opts.app == nil {
		return nil
	}
	return opts.app.Close()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var errNoInput = errors.New("no state on stdin; pass --state or pipe a JSON document")

func makeExample(examples ...string) string {
	var out string
	for _, e := range examples {
		out += "  " + e + "\n"
	}
	return out
}
