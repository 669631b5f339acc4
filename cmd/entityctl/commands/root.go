package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/entitycache"
	"github.com/unkn0wn-root/entitycache/config"
	"github.com/unkn0wn-root/entitycache/notify/term"
)

// errReported is returned after a failure was already shown to the user.
var errReported = errors.New("entityctl: request failed")

// app holds what one invocation needs. build is swapped in tests.
type app struct {
	cfgPath string
	refresh bool
	metrics bool

	out    io.Writer
	errOut io.Writer
	build  func(ctx context.Context, cfg *config.Config, notify entitycache.Notifier, errOut io.Writer) (*runtime, error)

	rt *runtime
}

var version = "dev"

// SetVersionInfo sets the version information for the CLI.
func SetVersionInfo(v, c string) {
	version = fmt.Sprintf("%s (commit: %s)", v, c)
}

// Execute runs entityctl with os.Args. Every failure has been printed to
// stderr by the time it returns.
func Execute() error {
	a := &app{out: os.Stdout, errOut: os.Stderr, build: buildRuntime}
	return a.execute(context.Background(), os.Args[1:])
}

// execute runs one command and always releases the runtime, whatever the
// command returned. Errors not already shown by the notifier are printed.
func (a *app) execute(ctx context.Context, args []string) error {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if a.rt != nil {
		var metrics io.Writer
		if a.metrics {
			metrics = a.errOut
		}
		if ferr := a.rt.finish(ctx, metrics); ferr != nil && err == nil {
			err = ferr
		}
		a.rt = nil
	}
	if err != nil && !errors.Is(err, errReported) {
		fmt.Fprintln(a.errOut, "Error:", err)
	}
	return err
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "entityctl",
		Short: "Inspect and edit entity definitions and their instances",
		Long: `entityctl talks to the entity backend through the entitycache client.

Configuration is read from --config (YAML) and the environment:
  ENTITYCACHE_BASE_URL  backend base URL
  ENTITYCACHE_TOKEN     bearer token

Results are printed as JSON on stdout; failures are shown on stderr.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.cfgPath)
			if err != nil {
				return err
			}
			rt, err := a.build(cmd.Context(), cfg, term.New(a.errOut), a.errOut)
			if err != nil {
				return err
			}
			a.rt = rt
			return nil
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgPath, "config", "c", "", "Path to entityctl YAML config")
	pf.BoolVar(&a.refresh, "refresh", false, "Bypass the cache and reload from the backend")
	pf.BoolVar(&a.metrics, "metrics", false, "Print cache counters (Prometheus text format) to stderr on exit")

	root.AddCommand(newDefinitionsCmd(a), newInstancesCmd(a))
	return root
}

// printJSON writes the value of a successful outcome as indented JSON.
func printJSON[T any](a *app, o entitycache.Outcome[T]) error {
	v, ok := o.Value()
	if !ok {
		return errReported
	}
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// done reports success of an outcome without payload.
func done(a *app, o entitycache.Outcome[entitycache.None], what string) error {
	if !o.OK() {
		return errReported
	}
	fmt.Fprintln(a.out, what)
	return nil
}
