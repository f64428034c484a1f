package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/simonhull/metaspector"
)

func newExportCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write cover art or metadata to disk",
	}
	cmd.AddCommand(newExportCoverCommand(a), newExportMetaCommand(a))
	return cmd
}

func newExportCoverCommand(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "cover <file>",
		Short: "Save the embedded cover picture",
		Long: `Save the embedded cover picture next to the media file.

Without -o the picture is written as <name>.cover<ext>, where the
extension follows the picture's MIME type.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			art, err := extractCover(path, a.options(metaspector.WithName(path)))
			if err != nil {
				return err
			}
			if art == nil {
				return fmt.Errorf("%s: no cover art", path)
			}

			if output == "" {
				output = trimExt(path) + ".cover" + coverExtension(art)
			}
			if err := os.WriteFile(output, art.Data, 0o644); err != nil {
				return fmt.Errorf("write cover: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %s\n", output, art)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination path")
	return cmd
}

func newExportMetaCommand(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "meta <file>",
		Short: "Save the metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			md, err := metaspector.InspectFile(path, a.options()...)
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(report{Path: path, Format: md.Format, UnifiedMetadata: md}, "", "  ")
			if err != nil {
				return fmt.Errorf("encode json: %w", err)
			}
			if output == "" {
				output = trimExt(path) + ".json"
			}
			if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
				return fmt.Errorf("write metadata: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination path (default <name>.json)")
	return cmd
}

func extractCover(path string, opts []metaspector.Option) (*metaspector.CoverArt, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if stat.IsDir() {
		return nil, errors.New(path + " is a directory")
	}
	return metaspector.ExtractCoverArt(f, stat.Size(), opts...)
}

// coverExtension picks the file extension for art: .png and .jpg for the
// common cases, otherwise whatever the MIME type or the bytes suggest.
func coverExtension(art *metaspector.CoverArt) string {
	switch art.MIMEType {
	case "image/png":
		return ".png"
	case "image/jpeg", "":
		return ".jpg"
	}
	if m := mimetype.Lookup(art.MIMEType); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	return art.Extension()
}

func trimExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}
