package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/teranos/QVIZ/errors"
	"github.com/teranos/QVIZ/graph"
	"github.com/teranos/QVIZ/store"
	"github.com/teranos/QVIZ/sym"
)

// SpecsCmd manages the stored spec catalog
var SpecsCmd = &cobra.Command{
	Use:   "specs",
	Short: sym.DB + " Manage stored graph specs",
	Long: sym.DB + ` specs — Manage the stored spec catalog

Stored specs are addressed by short base58 slugs, which double as share
handles for the console and MCP tools.

Examples:
  qviz specs list                 # List stored specs, newest first
  qviz specs show 3xKpR2mQ        # Print one spec as JSON
  qviz specs save schema.json     # Store a spec file, printing its slug
  qviz specs rm 3xKpR2mQ          # Delete a stored spec`,
}

var specsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored specs",
	RunE:  runSpecsList,
}

var specsShowCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "Print a stored spec as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runSpecsShow,
}

var specsSaveCmd = &cobra.Command{
	Use:   "save <file>",
	Short: "Store a spec file and print its slug",
	Args:  cobra.ExactArgs(1),
	RunE:  runSpecsSave,
}

var specsRmCmd = &cobra.Command{
	Use:     "rm <slug>",
	Aliases: []string{"delete"},
	Short:   "Delete a stored spec",
	Args:    cobra.ExactArgs(1),
	RunE:    runSpecsRm,
}

var specsListLimit int

func init() {
	specsListCmd.Flags().IntVar(&specsListLimit, "limit", 50, "Maximum number of specs to list (0 for all)")

	SpecsCmd.AddCommand(specsListCmd)
	SpecsCmd.AddCommand(specsShowCmd)
	SpecsCmd.AddCommand(specsSaveCmd)
	SpecsCmd.AddCommand(specsRmCmd)
}

// openStore opens the configured database and wraps it in a spec store.
// The returned closer releases the database handle.
func openStore() (*store.Store, func(), error) {
	database, err := openDatabase("")
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open database")
	}
	return store.NewStore(database), func() { database.Close() }, nil
}

func runSpecsList(cmd *cobra.Command, args []string) error {
	specStore, closer, err := openStore()
	if err != nil {
		return err
	}
	defer closer()

	records, err := specStore.List(context.Background(), specsListLimit)
	if err != nil {
		return errors.Wrap(err, "failed to list specs")
	}

	if len(records) == 0 {
		pterm.Info.Println("No stored specs")
		return nil
	}

	rows := pterm.TableData{{"SLUG", "TITLE", "NODES", "LINKS", "UPDATED"}}
	for _, rec := range records {
		title := rec.Title
		if title == "" {
			title = "(untitled)"
		}
		rows = append(rows, []string{
			rec.Slug,
			title,
			fmt.Sprintf("%d", rec.NodeCount),
			fmt.Sprintf("%d", rec.LinkCount),
			rec.UpdatedAt.Format("2006-01-02 15:04"),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func runSpecsShow(cmd *cobra.Command, args []string) error {
	slug := args[0]

	specStore, closer, err := openStore()
	if err != nil {
		return err
	}
	defer closer()

	spec, rec, err := specStore.GetBySlug(context.Background(), slug)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return errors.Newf("no spec with slug %q", slug)
		}
		return errors.Wrapf(err, "failed to load spec %q", slug)
	}

	payload, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode spec")
	}

	pterm.Info.Printf("%s  %s  (updated %s)\n", rec.Slug, spec.Summary(), rec.UpdatedAt.Format("2006-01-02 15:04"))
	fmt.Println(string(payload))
	return nil
}

func runSpecsSave(cmd *cobra.Command, args []string) error {
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read spec file %s", path)
	}
	spec, err := graph.DecodeSpec(data)
	if err != nil {
		return errors.Wrapf(err, "failed to parse spec file %s", path)
	}

	specStore, closer, err := openStore()
	if err != nil {
		return err
	}
	defer closer()

	rec, err := specStore.Save(context.Background(), spec)
	if err != nil {
		return errors.Wrap(err, "failed to save spec")
	}

	pterm.Success.Printf("Saved %s as %s\n", spec.Summary(), rec.Slug)
	return nil
}

func runSpecsRm(cmd *cobra.Command, args []string) error {
	slug := args[0]

	specStore, closer, err := openStore()
	if err != nil {
		return err
	}
	defer closer()

	if err := specStore.Delete(context.Background(), slug); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return errors.Newf("no spec with slug %q", slug)
		}
		return errors.Wrapf(err, "failed to delete spec %q", slug)
	}

	pterm.Success.Printf("Deleted %s\n", slug)
	return nil
}
