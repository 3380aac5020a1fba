package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zjrosen/cachebox/internal/catalog"
	"github.com/zjrosen/cachebox/internal/config"
)

// buildSource constructs the catalog backend selected by the config.
// The returned close func releases backend resources; it is always non-nil.
func buildSource(cfg config.Config) (catalog.Source, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Catalog.Driver {
	case "", "yaml":
		dir := filepath.Dir(cfg.Catalog.Path)
		file := filepath.Base(cfg.Catalog.Path)
		src, err := catalog.NewYAMLSource(os.DirFS(dir), file)
		if err != nil {
			return nil, noop, fmt.Errorf("open yaml catalog: %w", err)
		}
		return src, noop, nil

	case "sqlite":
		src, err := catalog.OpenSQLiteSource(cfg.Catalog.Path)
		if err != nil {
			return nil, noop, fmt.Errorf("open sqlite catalog: %w", err)
		}
		return src, src.Close, nil

	case "static":
		return catalog.NewMapSource(demoEntries()...), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown catalog driver %q", cfg.Catalog.Driver)
	}
}

// demoEntries is the built-in catalog for the static driver, enough to
// exercise object loads, class loads, and a class hierarchy.
func demoEntries() []catalog.Entry {
	return []catalog.Entry{
		{Path: "/classes/pawn", Kind: catalog.KindClass, Name: "Pawn"},
		{Path: "/classes/character", Kind: catalog.KindClass, Name: "Character", Parent: "Pawn"},
		{Path: "/classes/widget", Kind: catalog.KindClass, Name: "HUDWidget"},
		{Path: "/objects/mesh/crate", Kind: catalog.KindObject, Name: "CrateMesh", Class: "StaticMesh"},
		{Path: "/objects/mesh/barrel", Kind: catalog.KindObject, Name: "BarrelMesh", Class: "StaticMesh"},
		{Path: "/objects/sound/ambient", Kind: catalog.KindObject, Name: "AmbientLoop", Class: "SoundCue"},
	}
}
