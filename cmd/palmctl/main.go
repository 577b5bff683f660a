// Command palmctl decodes, inspects and matches palm embeddings and manages
// the palm registry and its gallery snapshots.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
