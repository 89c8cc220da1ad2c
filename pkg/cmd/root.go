package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/xlttj/kfwd/pkg/config"
	"github.com/xlttj/kfwd/pkg/failure"
	"github.com/xlttj/kfwd/pkg/forward"
	"github.com/xlttj/kfwd/pkg/kubectl"
	"github.com/xlttj/kfwd/pkg/logging"
	"github.com/xlttj/kfwd/pkg/selection"
	"github.com/xlttj/kfwd/pkg/ui"
)

// envKubectl overrides the default cluster tool binary.
const envKubectl = "KFWD_KUBECTL"

var version = "dev"

// newPrompter is swapped in tests to script the interactive choices.
var newPrompter = func() selection.Prompter {
	return ui.NewPrompter()
}

type rootOptions struct {
	configPath    string
	kubectlBinary string
	debug         bool
	logFile       string
}

// SetVersion sets the version reported by --version and the version command.
func SetVersion(v string) {
	version = v
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "kfwd",
		Short: "Pick a Kubernetes service and forward its ports",
		Long: `kfwd walks you from a kubectl context down to a service in a namespace,
asks which local port each service port should be forwarded to, and then runs
kubectl port-forward until you press Ctrl+C.

Every choice is remembered and offered as the default next time.`,
		Args:    cobra.NoArgs,
		Version: version,
		// Errors are rendered by Execute, usage would only add noise.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd, opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForward(cmd, opts)
		},
	}
	rootCmd.SetVersionTemplate(`{{printf "kfwd version %s\n" .Version}}`)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "preference file (default <user config dir>/kfwd/config.json)")
	flags.StringVar(&opts.kubectlBinary, "kubectl", os.Getenv(envKubectl), "kubectl binary to invoke (env "+envKubectl+", default kubectl)")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	flags.StringVar(&opts.logFile, "log-file", "", "append log output to this file instead of stderr")

	rootCmd.AddCommand(newHistoryCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the command line and exits non-zero on failure.
// This is called by main.main().
func Execute() {
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.RenderError(err.Error()))
		os.Exit(failure.ExitCode(err))
	}
}

func setupLogging(cmd *cobra.Command, opts *rootOptions) error {
	level := slog.LevelWarn
	if opts.debug {
		level = slog.LevelDebug
	}

	var output io.Writer = cmd.ErrOrStderr()
	if opts.logFile != "" {
		f, err := logging.OpenFile(opts.logFile)
		if err != nil {
			return failure.Wrap(failure.IOError, err)
		}
		// The file stays open until the process exits.
		output = f
	}

	logging.Init(level, output)
	logging.LogDebug("kfwd %s starting, config=%q kubectl=%q", version, opts.configPath, opts.kubectlBinary)
	return nil
}

func openStore(opts *rootOptions) (*config.Store, error) {
	store, err := config.NewStore(opts.configPath)
	if err != nil {
		return nil, failure.Wrap(failure.IOError, err)
	}
	return store, nil
}

func runForward(cmd *cobra.Command, opts *rootOptions) error {
	ctx := cmd.Context()

	store, err := openStore(opts)
	if err != nil {
		return err
	}
	prefs := store.Load()

	client := kubectl.NewClient(opts.kubectlBinary)
	client.Stdout = cmd.OutOrStdout()
	client.Stderr = cmd.ErrOrStderr()

	result, err := selection.New(client, newPrompter(), store, prefs).Run(ctx)
	if err != nil {
		return err
	}
	logging.LogInfo("Forwarding service/%s in %s (context %s)", result.Service.Name, result.Namespace.Name, result.Context)

	supervisor := forward.New(cmd.ErrOrStderr())
	return supervisor.Run(ctx, func() (forward.Process, error) {
		proc, err := client.StartForward(result.Namespace.Name, result.Service.Name, result.Ports)
		if err != nil {
			return nil, err
		}
		return proc, nil
	})
}
