package cli

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/simonhull/metaspector"
)

// report is the JSON document written per file.
type report struct {
	Path   string             `json:"path"`
	Format metaspector.Format `json:"format"`
	*metaspector.UnifiedMetadata
}

func newInspectCommand(a *app) *cobra.Command {
	var (
		section string
		asJSON  bool
		asText  bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <file> [file...]",
		Short: "Print the metadata, tracks and cover art summary of media files",
		Long: `Inspect decodes each file and prints its unified metadata.

JSON is the default output. One file yields a single object, several
files yield an array in argument order. Files are decoded concurrently.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.options()
			if section != "" {
				s, err := metaspector.ParseSection(section)
				if err != nil {
					return err
				}
				opts = append(opts, metaspector.WithSection(s))
			}

			results, err := metaspector.InspectMany(cmd.Context(), args, opts...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asText {
				for i, md := range results {
					if i > 0 {
						fmt.Fprintln(out)
					}
					writeText(out, args[i], md)
				}
				return nil
			}

			if len(results) == 1 {
				return writeJSON(out, report{Path: args[0], Format: results[0].Format, UnifiedMetadata: results[0]})
			}
			reports := make([]report, len(results))
			for i, md := range results {
				reports[i] = report{Path: args[i], Format: md.Format, UnifiedMetadata: md}
			}
			return writeJSON(out, reports)
		},
	}

	cmd.Flags().StringVarP(&section, "section", "s", "", "limit output to one section: metadata, audio, video or subtitle")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON (default)")
	cmd.Flags().BoolVar(&asText, "text", false, "print a human-readable summary")
	cmd.MarkFlagsMutuallyExclusive("json", "text")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
