// protlib - peptide digestion, spectrum preparation and scoring tool
package main

import (
	"fmt"
	"os"

	"github.com/fcyu/ProteomicsLibrary/cmd/protlib/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
