package commands

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/formfill/internal/form"
)

func newCacheCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspects and clears cached form structures.",
	}
	cmd.AddCommand(newCacheListCommand(g), newCacheClearCommand(g))
	return cmd
}

func newCacheListCommand(g *globals) *cobra.Command {
	var (
		match  string
		output string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lists cached structures.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(output, formatText, formatJSON, formatYAML); err != nil {
				return err
			}
			if match != "" && !doublestar.ValidatePattern(match) {
				return fmt.Errorf("invalid pattern %q", match)
			}
			a, err := newApp(g, wiring{})
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.cache.List(match)
			if err != nil {
				return err
			}
			if output != formatText {
				return render(cmd.OutOrStdout(), output, entries)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "IDENTITY\tFIELDS\tSTORED\tSTATE\tURL")
			for _, e := range entries {
				state := "fresh"
				switch {
				case e.Err != "":
					state = "corrupt"
				case e.Stale:
					state = "stale"
				}
				stored := "-"
				if !e.StoredAt.IsZero() {
					stored = e.StoredAt.Local().Format(time.DateTime)
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", e.Identity, e.Fields, stored, state, e.URL)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&match, "match", "", "glob over cache file names, e.g. 'form_1FAI*'")
	cmd.Flags().StringVarP(&output, "output", "o", formatText, "output format: text, json or yaml")
	return cmd
}

func newCacheClearCommand(g *globals) *cobra.Command {
	var match string
	cmd := &cobra.Command{
		Use:   "clear [URL]",
		Short: "Removes the cached structure of URL, or every entry matching --match.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && match == "" {
				return errors.New("give a form URL or --match")
			}
			a, err := newApp(g, wiring{})
			if err != nil {
				return err
			}
			defer a.Close()

			if len(args) == 1 {
				if err := a.runner.Invalidate(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", form.IdentityFromURL(args[0]))
				return nil
			}
			n, err := a.cache.Clear(match)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d entries\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&match, "match", "", "glob over cache file names; '*' clears everything")
	return cmd
}
