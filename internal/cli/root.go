// Package cli implements the planbook command-line interface: the storage
// and server commands, the REST client commands and the terminal browser.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/planbook/internal/client"
	"github.com/mesh-intelligence/planbook/internal/grid"
	"github.com/mesh-intelligence/planbook/internal/narrative"
	"github.com/mesh-intelligence/planbook/internal/paths"
	"github.com/mesh-intelligence/planbook/pkg/planbook"
	"github.com/mesh-intelligence/planbook/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds the global flag values.
type rootFlags struct {
	configDir string
	dataDir   string
	server    string
	jsonMode  bool
	verbose   bool
}

// app is the state shared by the subcommands of one invocation.
type app struct {
	flags     rootFlags
	configDir string
	cfg       types.Config
	logger    *slog.Logger
}

// exitError carries an explicit exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }
func sysError(err error) error  { return &exitError{code: exitSysError, err: err} }

// NewRootCmd creates the top-level "planbook" command with its global
// flags and every subcommand registered.
func NewRootCmd() *cobra.Command {
	a := &app{logger: slog.New(slog.DiscardHandler)}

	root := &cobra.Command{
		Use:   "planbook",
		Short: "Project-plan documentation dashboard",
		Long: "Planbook keeps the sections of a project plan (tables and narrative\n" +
			"fields) in a sqlite-backed REST service and edits them from the terminal.",
		Version:       planbook.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: .planbook-db)")
	pf.StringVar(&a.flags.server, "server", "", "API base URL (default: server_url from config.yaml)")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "debug logging on stderr")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newServeCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newUsersCmd(a),
		newProjectsCmd(a),
		newSectionsCmd(a),
		newTableCmd(a),
		newColumnsCmd(a),
		newEntryCmd(a),
		newSearchCmd(a),
		newBrowseCmd(a),
	)
	return root
}

// setup builds the logger and loads config.yaml before any subcommand runs.
func (a *app) setup(cmd *cobra.Command) error {
	level := slog.LevelInfo
	if a.flags.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	if cmd.Name() == "version" {
		return nil
	}

	dir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	var initDataDir string
	if cmd.Name() == "init" && a.flags.dataDir != "" {
		if initDataDir, err = filepath.Abs(a.flags.dataDir); err != nil {
			return sysError(err)
		}
	}
	cfg, err := loadConfig(dir, initDataDir)
	if errors.Is(err, errInvalidConfig) {
		return userError(err)
	}
	if err != nil {
		return sysError(err)
	}
	a.configDir = dir
	a.cfg = cfg
	a.logger.Debug("config loaded", "config_dir", dir, "backend", cfg.Backend)
	return nil
}

// dataDir resolves the data directory: --data-dir, config.yaml, env, default.
func (a *app) dataDir() (string, error) {
	return paths.ResolveDataDir(a.flags.dataDir, a.cfg.DataDir)
}

// serverURL returns --server or the configured API URL.
func (a *app) serverURL() string {
	if a.flags.server != "" {
		return a.flags.server
	}
	return a.cfg.GetServerURL()
}

// Run executes the CLI with args and returns the process exit code.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(stderr, "Error:", message(err))
	return exitCode(err)
}

// Execute runs the CLI against the process streams and exits.
func Execute() {
	os.Exit(Run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// message returns the user-facing text of err.
func message(err error) string {
	var tableErr *grid.ActionError
	if errors.As(err, &tableErr) {
		return tableErr.Message() + ": " + message(tableErr.Err)
	}
	var entryErr *narrative.ActionError
	if errors.As(err, &entryErr) {
		return entryErr.Message() + ": " + message(entryErr.Err)
	}
	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) && httpErr.Detail != "" {
		return httpErr.Detail
	}
	return err.Error()
}

// exitCode maps err to 1 for problems the user can fix and 2 for
// failures of the system underneath.
func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Status >= 500 {
			return exitSysError
		}
		return exitUserError
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return exitSysError
	}
	return exitUserError
}
