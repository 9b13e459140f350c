package commands

import (
	"github.com/spf13/cobra"
)

func newExtractCommand(g *globals) *cobra.Command {
	var (
		refresh bool
		output  string
	)
	cmd := &cobra.Command{
		Use:   "extract URL",
		Short: "Extracts and caches the structure of a form.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(output, formatJSON, formatYAML); err != nil {
				return err
			}
			a, err := newApp(g, wiring{})
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := a.runner.Structure(cmd.Context(), args[0], refresh)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), output, s)
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the cache and extract again")
	cmd.Flags().StringVarP(&output, "output", "o", formatJSON, "output format: json or yaml")
	return cmd
}
