package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bobbystable",
		Short: "Bobby's Table phone reservation host",
	}
	root.AddCommand(newServeCmd(), newSlotsCmd(), newVersionCmd(), newKeysCmd(), newHashPasswordCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
