package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simonhull/metaspector"
	"github.com/simonhull/metaspector/internal/binary"
	"github.com/simonhull/metaspector/internal/bmff"
)

func newBoxesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "boxes <file>",
		Short: "Dump the ISO-BMFF box tree of an MP4 file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open file: %w", err)
			}
			defer f.Close()

			stat, err := f.Stat()
			if err != nil {
				return fmt.Errorf("stat file: %w", err)
			}

			format, err := metaspector.DetectFormat(f, stat.Size())
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if format != metaspector.FormatMP4 {
				return fmt.Errorf("%s: %s is not an ISO-BMFF container", path, format)
			}

			sr := binary.NewSafeReader(f, stat.Size(), path)
			tree := bmff.Parse(sr, bmff.Options{MaxDepth: a.cfg.MaxDepth})

			out := cmd.OutOrStdout()
			tree.Walk(func(_ int, n *bmff.Node) bool {
				fmt.Fprintf(out, "%s%s (size: %d, offset: %d, depth: %d)", strings.Repeat("  ", n.Depth), n.Type, n.Size, n.Offset, n.Depth)
				if n.Truncated {
					fmt.Fprint(out, " [truncated]")
				}
				fmt.Fprintln(out)
				return true
			})
			fmt.Fprintf(out, "%d boxes, %d of %d bytes accounted for\n", len(tree.Nodes), tree.TopLevelSize(), stat.Size())

			for _, w := range tree.Warnings {
				a.log.Warn("box tree", "path", path, "stage", w.Stage, "offset", w.Offset, "message", w.Message)
			}
			return nil
		},
	}
}
