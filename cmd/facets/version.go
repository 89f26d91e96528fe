// Version command for the facets CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/facets/pkg/facets"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the facets version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("facets", facets.Version)
	},
}
