// Command gazetteer inspects a water-body gazetteer file.
//
// Usage:
//
//	go run ./cmd/gazetteer validate data/gazetteer.yaml
//	go run ./cmd/gazetteer scores
//	go run ./cmd/gazetteer search lake
package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/couchcryptid/water-advisory-service/internal/advisory"
	"github.com/couchcryptid/water-advisory-service/internal/domain"
	"github.com/couchcryptid/water-advisory-service/internal/gazetteer"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var path string

	root := &cobra.Command{
		Use:          "gazetteer",
		Short:        "Inspect the water-body gazetteer",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&path, "file", "", "gazetteer YAML file (default: embedded dataset)")

	root.AddCommand(
		validateCommand(),
		scoresCommand(&path),
		searchCommand(&path),
	)
	return root
}

func validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <path>",
		Short: "Check a gazetteer file for invalid or duplicate entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := gazetteer.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entries OK\n", args[0], len(entries))
			return nil
		},
	}
}

func scoresCommand(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "scores",
		Short: "Print the fishing score of every entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := load(*path)
			if err != nil {
				return err
			}
			return printScores(cmd.OutOrStdout(), entries)
		},
	}
}

func searchCommand(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Run a location search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := load(*path)
			if err != nil {
				return err
			}
			out := gazetteer.NewIndex(entries).Search(args[0])
			w := cmd.OutOrStdout()
			if !out.Issued {
				fmt.Fprintf(w, "query %q is shorter than %d characters\n", args[0], gazetteer.MinQueryLength)
				return nil
			}
			if len(out.Results) == 0 {
				fmt.Fprintf(w, "no matches for %q\n", args[0])
				return nil
			}
			for _, r := range out.Results {
				fmt.Fprintf(w, "%d. %s (%s) %.4f, %.4f\n", r.Rank, r.WaterBody.Name, r.WaterBody.Type,
					r.WaterBody.Coordinate.Lat, r.WaterBody.Coordinate.Lon)
			}
			return nil
		},
	}
}

func load(path string) ([]domain.WaterBody, error) {
	if path == "" {
		return gazetteer.Default()
	}
	return gazetteer.Load(path)
}

func printScores(w io.Writer, entries []domain.WaterBody) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tSCORE\tTIER")
	for _, wb := range entries {
		info := advisory.Describe(wb)
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", wb.Name, wb.Type, info.Score, info.Tier)
	}
	return tw.Flush()
}
