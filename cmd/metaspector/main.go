// Command metaspector inspects metadata in MP4, MP3 and FLAC files.
package main

import (
	"context"
	"os"

	"github.com/simonhull/metaspector/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
