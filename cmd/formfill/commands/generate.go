package commands

import (
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/formfill/internal/generate"
	"github.com/GriffinCanCode/formfill/internal/submit"
)

type generated struct {
	Answers generate.Answers `json:"answers" yaml:"answers"`
	Payload string           `json:"payload" yaml:"payload"`
}

func newGenerateCommand(g *globals) *cobra.Command {
	var (
		count  int
		seed   uint64
		output string
	)
	cmd := &cobra.Command{
		Use:   "generate URL",
		Short: "Generates answers for a form without submitting them.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(output, formatJSON, formatYAML); err != nil {
				return err
			}
			var w wiring
			if cmd.Flags().Changed("seed") {
				w.seed = &seed
			}
			a, err := newApp(g, w)
			if err != nil {
				return err
			}
			defer a.Close()

			s, sets, err := a.runner.Answers(cmd.Context(), args[0], count)
			if err != nil {
				return err
			}
			out := make([]generated, len(sets))
			for i, answers := range sets {
				out[i] = generated{Answers: answers, Payload: submit.BuildPayload(s, answers).Encode()}
			}
			return render(cmd.OutOrStdout(), output, out)
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of answer sets")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for reproducible answers")
	cmd.Flags().StringVarP(&output, "output", "o", formatJSON, "output format: json or yaml")
	return cmd
}
