package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/xlttj/kfwd/pkg/failure"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the remembered namespace, service and port mappings",
		Long: `Prints the preference file kfwd uses to default its prompts:
the last namespace, the last service and the local port chosen for every
forwarded service port.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(opts)
			if err != nil {
				return err
			}
			prefs := store.Load()

			var data []byte
			switch output {
			case outputJSON:
				data, err = json.MarshalIndent(prefs, "", "  ")
				if err == nil {
					data = append(data, '\n')
				}
			case outputYAML:
				data, err = yaml.Marshal(prefs)
			default:
				return failure.Wrap(failure.InvalidSelection,
					fmt.Errorf("unsupported output format %q (use %s or %s)", output, outputJSON, outputYAML))
			}
			if err != nil {
				return failure.Wrap(failure.IOError, fmt.Errorf("failed to encode preferences: %w", err))
			}

			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputJSON, "output format: json or yaml")
	return cmd
}
