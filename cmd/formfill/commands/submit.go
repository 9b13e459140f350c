package commands

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/formfill/internal/runner"
)

func newSubmitCommand(g *globals) *cobra.Command {
	var (
		dryRun   bool
		delayMin time.Duration
		delayMax time.Duration
		retries  int
		confirm  string
		output   string
	)
	cmd := &cobra.Command{
		Use:   "submit URL COUNT",
		Short: "Submits COUNT generated responses to a form.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(output, formatText, formatJSON, formatYAML); err != nil {
				return err
			}
			count, err := strconv.Atoi(args[1])
			if err != nil || count < 1 {
				return fmt.Errorf("COUNT must be a positive integer, got %q", args[1])
			}

			opts := runnerOptions(g.cfg.Submit)
			flags := cmd.Flags()
			if flags.Changed("dry-run") {
				opts.DryRun = dryRun
			}
			if flags.Changed("delay-min") {
				opts.DelayMin = delayMin
			}
			if flags.Changed("delay-max") {
				opts.DelayMax = delayMax
			}
			if flags.Changed("retries") {
				opts.Retries = retries
			}
			if flags.Changed("confirm") {
				opts.ConfirmPhrase = confirm
			}

			a, err := newApp(g, wiring{options: &opts})
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.runner.Run(cmd.Context(), args[0], count)
			if err != nil {
				return err
			}
			if output == formatText {
				printReport(cmd.OutOrStdout(), report)
			} else if err := render(cmd.OutOrStdout(), output, report); err != nil {
				return err
			}

			if report.Aborted != "" {
				return fmt.Errorf("run stopped early: %s", report.Aborted)
			}
			if report.Succeeded == 0 && report.Requested > 0 {
				return fmt.Errorf("all %d submissions failed", report.Requested)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&dryRun, "dry-run", false, "log payloads instead of submitting")
	flags.DurationVar(&delayMin, "delay-min", 0, "minimum pause between submissions")
	flags.DurationVar(&delayMax, "delay-max", 0, "maximum pause between submissions")
	flags.IntVar(&retries, "retries", 0, "extra attempts per failed submission")
	flags.StringVar(&confirm, "confirm", "", "phrase expected in the confirmation page, empty accepts any 2xx")
	flags.StringVarP(&output, "output", "o", formatText, "output format: text, json or yaml")
	return cmd
}

func printReport(w io.Writer, r *runner.Report) {
	mode := ""
	if r.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(w, "Run %s%s\n", r.RunID, mode)
	for _, o := range r.Outcomes {
		if o.Success {
			fmt.Fprintf(w, "  #%d ok after %d attempt(s)\n", o.Index+1, max(o.Attempts, 1))
		} else {
			fmt.Fprintf(w, "  #%d failed after %d attempt(s): %s\n", o.Index+1, o.Attempts, o.Error)
		}
	}
	fmt.Fprintf(w, "Submitted %d/%d responses in %s\n", r.Succeeded, r.Requested, r.Duration().Round(time.Millisecond))
	if r.Aborted != "" {
		fmt.Fprintf(w, "Stopped early: %s\n", r.Aborted)
	}
}
