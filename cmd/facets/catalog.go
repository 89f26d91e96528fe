// Catalog commands for the facets CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/facets/pkg/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and manage stored catalogs",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored catalogs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "catalog list:", err)
			os.Exit(exitSysError)
		}
		defer backend.Detach()

		infos, err := backend.ListCatalogs()
		if err != nil {
			fmt.Fprintln(os.Stderr, "list catalogs:", err)
			os.Exit(exitSysError)
		}

		if flagJSON {
			return printJSON(infos)
		}
		if len(infos) == 0 {
			fmt.Println("No catalogs stored")
			return nil
		}
		for _, info := range infos {
			fmt.Printf("%s  %-6s  v%-4d  %d aspect defs, %d hierarchies\n",
				info.ID, info.Species, info.Version, info.AspectDefs, info.Hierarchies)
		}
		return nil
	},
}

var catalogShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Display a catalog's schema and hierarchies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid catalog id %q\n", args[0])
			os.Exit(exitUserError)
		}

		backend, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "catalog show:", err)
			os.Exit(exitSysError)
		}
		defer backend.Detach()

		catalog, err := backend.LoadCatalog(id)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				fmt.Fprintf(os.Stderr, "catalog %q not found\n", args[0])
				os.Exit(exitUserError)
			}
			fmt.Fprintln(os.Stderr, "load catalog:", err)
			os.Exit(exitSysError)
		}

		if flagJSON {
			return printJSON(catalogDocument(catalog))
		}

		fmt.Printf("ID:       %s\n", catalog.ID)
		fmt.Printf("Species:  %s\n", catalog.Species)
		if catalog.Upstream != uuid.Nil {
			fmt.Printf("Upstream: %s\n", catalog.Upstream)
		}
		fmt.Printf("Version:  %d\n", catalog.Version)
		fmt.Printf("Schema:   %016x\n", catalog.SchemaHash())

		defs := catalog.AspectDefs()
		if len(defs) > 0 {
			fmt.Println("\nAspect defs:")
			for _, def := range defs {
				fmt.Printf("  %s (%d properties)\n", def.Name, def.Len())
				for _, prop := range def.Properties() {
					flags := ""
					if prop.Multivalued {
						flags += " multivalued"
					}
					if prop.Nullable {
						flags += " nullable"
					}
					fmt.Printf("    %s %s%s\n", prop.Name, prop.Type.Code(), flags)
				}
			}
		}

		hiers := catalog.Hierarchies()
		if len(hiers) > 0 {
			fmt.Println("\nHierarchies:")
			for _, h := range hiers {
				fmt.Printf("  %s (%s) v%d\n", h.Name(), h.Type(), h.Version())
			}
		}
		return nil
	},
}

var catalogDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a catalog and all its stored state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid catalog id %q\n", args[0])
			os.Exit(exitUserError)
		}

		backend, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "catalog delete:", err)
			os.Exit(exitSysError)
		}
		defer backend.Detach()

		deleted, err := backend.DeleteCatalog(id)
		if err != nil {
			fmt.Fprintln(os.Stderr, "delete catalog:", err)
			os.Exit(exitSysError)
		}
		if !deleted {
			fmt.Fprintf(os.Stderr, "catalog %q not found\n", args[0])
			os.Exit(exitUserError)
		}

		fmt.Printf("Deleted catalog %s\n", id)
		return nil
	},
}

// catalogDocument flattens a catalog into a JSON-friendly structure. The
// in-memory Catalog keeps its defs and hierarchies in unexported maps, so
// the CLI builds its own view for --json output.
func catalogDocument(c *types.Catalog) map[string]any {
	defs := make([]map[string]any, 0, len(c.AspectDefs()))
	for _, def := range c.AspectDefs() {
		props := make([]map[string]any, 0, def.Len())
		for _, prop := range def.Properties() {
			props = append(props, map[string]any{
				"name":        prop.Name,
				"type":        prop.Type.Code(),
				"nullable":    prop.Nullable,
				"removable":   prop.Removable,
				"multivalued": prop.Multivalued,
			})
		}
		defs = append(defs, map[string]any{
			"id":         def.ID,
			"name":       def.Name,
			"properties": props,
		})
	}

	hiers := make([]map[string]any, 0, len(c.Hierarchies()))
	for _, h := range c.Hierarchies() {
		hiers = append(hiers, map[string]any{
			"name":    h.Name(),
			"type":    h.Type(),
			"version": h.Version(),
		})
	}

	doc := map[string]any{
		"id":          c.ID,
		"species":     c.Species,
		"version":     c.Version,
		"schema_hash": fmt.Sprintf("%016x", c.SchemaHash()),
		"aspect_defs": defs,
		"hierarchies": hiers,
	}
	if c.Upstream != uuid.Nil {
		doc["upstream"] = c.Upstream
	}
	return doc
}

func init() {
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogShowCmd)
	catalogCmd.AddCommand(catalogDeleteCmd)
}
