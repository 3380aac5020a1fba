package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/cachebox/internal/asset"
	"github.com/zjrosen/cachebox/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and manage the asset catalog",
}

var catalogInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the sqlite catalog database",
	Long: `Init creates the sqlite catalog at catalog.path and bootstraps its
schema. With --seed the built-in demo entries are inserted.`,
	RunE: runCatalogInit,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every entry in the configured catalog",
	RunE:  runCatalogList,
}

var catalogPutCmd = &cobra.Command{
	Use:   "put <path>",
	Short: "Insert or replace an entry in the sqlite catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogPut,
}

var (
	catalogSeed bool

	putKind   string
	putName   string
	putClass  string
	putParent string
)

func init() {
	catalogInitCmd.Flags().BoolVar(&catalogSeed, "seed", false,
		"insert the built-in demo entries")

	catalogPutCmd.Flags().StringVar(&putKind, "kind", "object", "entry kind: object or class")
	catalogPutCmd.Flags().StringVar(&putName, "name", "", "asset name (required)")
	catalogPutCmd.Flags().StringVar(&putClass, "class", "", "class name for object entries")
	catalogPutCmd.Flags().StringVar(&putParent, "parent", "", "parent class for class entries")
	_ = catalogPutCmd.MarkFlagRequired("name")

	catalogCmd.AddCommand(catalogInitCmd, catalogListCmd, catalogPutCmd)
	rootCmd.AddCommand(catalogCmd)
}

func runCatalogInit(cmd *cobra.Command, args []string) error {
	if cfg.Catalog.Driver != "sqlite" {
		return fmt.Errorf("catalog init requires the sqlite driver, got %q", cfg.Catalog.Driver)
	}

	src, err := catalog.OpenSQLiteSource(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	if catalogSeed {
		for _, e := range demoEntries() {
			if err := src.Put(cmd.Context(), e); err != nil {
				return err
			}
		}
		cmd.Printf("seeded %d entries\n", len(demoEntries()))
	}
	cmd.Printf("catalog ready at %s\n", cfg.Catalog.Path)
	return nil
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	source, closeSource, err := buildSource(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeSource() }()

	entries, err := source.List(cmd.Context())
	if err != nil {
		return err
	}

	for _, e := range entries {
		switch e.Kind {
		case catalog.KindClass:
			if e.Parent != "" {
				cmd.Printf("%-40s class  %s : %s\n", e.Path, e.Name, e.Parent)
			} else {
				cmd.Printf("%-40s class  %s\n", e.Path, e.Name)
			}
		default:
			cmd.Printf("%-40s object %s (%s)\n", e.Path, e.Name, e.Class)
		}
	}
	cmd.Printf("%d entries\n", len(entries))
	return nil
}

func runCatalogPut(cmd *cobra.Command, args []string) error {
	if cfg.Catalog.Driver != "sqlite" {
		return fmt.Errorf("catalog put requires the sqlite driver, got %q", cfg.Catalog.Driver)
	}

	src, err := catalog.OpenSQLiteSource(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	entry := catalog.Entry{
		Path:   asset.Path(args[0]),
		Kind:   catalog.Kind(putKind),
		Name:   putName,
		Class:  putClass,
		Parent: putParent,
	}
	if err := src.Put(cmd.Context(), entry); err != nil {
		return err
	}
	cmd.Printf("put %s\n", entry.Path)
	return nil
}
