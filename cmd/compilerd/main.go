// compilerd is a demo CLI over pkg/compiler: a one-shot driver that loads
// a settings file, submits a single compile or link task through the
// same Service an embedding editor would use, and prints the result.
// The core scheduler is a library; this binary exists for manual and
// integration driving, not as the product surface.
package main

import (
	"fmt"
	"os"

	"github.com/gdextbuild/compilerd/cmd/compilerd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
