// Reset command for the facets CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagResetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop all stored catalogs and engine tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !flagResetForce {
			fmt.Fprintln(os.Stderr, "reset: refusing to drop storage without --force")
			os.Exit(exitUserError)
		}

		backend, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "reset:", err)
			os.Exit(exitSysError)
		}
		defer backend.Detach()

		if err := backend.DropSchema(); err != nil {
			fmt.Fprintln(os.Stderr, "drop schema:", err)
			os.Exit(exitSysError)
		}

		fmt.Println("Facets storage reset")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&flagResetForce, "force", false, "confirm dropping all stored data")
}
