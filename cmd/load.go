package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/cachebox/internal/asset"
	"github.com/zjrosen/cachebox/internal/box"
	"github.com/zjrosen/cachebox/internal/catalog"
	"github.com/zjrosen/cachebox/internal/log"
	"github.com/zjrosen/cachebox/internal/pubsub"
	"github.com/zjrosen/cachebox/internal/streaming"
	"github.com/zjrosen/cachebox/internal/tracing"
	"github.com/zjrosen/cachebox/internal/world"
)

var (
	loadAsync   bool
	loadClasses bool
	loadWatch   bool
	loadOwner   string
	loadBase    string
)

var loadCmd = &cobra.Command{
	Use:   "load [path...]",
	Short: "Load catalog assets through a registry box",
	Long: `Load resolves each path against the configured catalog and holds the
results in a registry box. With --watch the command keeps running,
flushing and re-resolving when a yaml manifest changes on disk.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().BoolVar(&loadAsync, "async", false,
		"resolve the batch in the background and wait for the aggregate completion")
	loadCmd.Flags().BoolVar(&loadClasses, "classes", false,
		"treat the paths as class references instead of object references")
	loadCmd.Flags().BoolVar(&loadWatch, "watch", false,
		"keep running and re-resolve when the yaml manifest changes")
	loadCmd.Flags().StringVar(&loadOwner, "owner", "cli",
		"owner name recorded on the box")
	loadCmd.Flags().StringVar(&loadBase, "base", "",
		"required base class for --classes loads")

	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() { _ = provider.Shutdown(context.Background()) }()

	source, closeSource, err := buildSource(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeSource() }()

	mgr := streaming.NewManager(streaming.Config{
		Source:          source,
		ReleaseTTL:      cfg.Cache.ReleaseTTL,
		CleanupInterval: cfg.Cache.CleanupInterval,
	})
	defer mgr.Close()

	w := world.NewSimWorld()
	w.SetContext("cli")

	comp := box.NewComponent(box.Config{Owner: loadOwner, Stream: mgr, World: w})
	if err := comp.Start(); err != nil {
		return fmt.Errorf("start registry: %w", err)
	}
	defer comp.Stop()
	b := comp.Box()

	if err := loadBatch(ctx, cmd, b, mgr, args); err != nil {
		return err
	}
	printSummary(cmd, b)

	if loadWatch || cfg.Catalog.AutoReload {
		if err := watchManifest(ctx, cmd, b, mgr, args); err != nil {
			return err
		}
	}
	return nil
}

// loadBatch resolves args through the box, honoring --async and --classes,
// then prints the per-path results collected from the manager's broker.
func loadBatch(ctx context.Context, cmd *cobra.Command, b *box.Box, mgr *streaming.Manager, args []string) error {
	subCtx, unsubscribe := context.WithCancel(ctx)
	events := mgr.Broker().Subscribe(subCtx, pubsub.ResolvedEvent, pubsub.FailedEvent)

	err := resolveBatch(ctx, b, mgr, args)

	// Cancelling the subscription closes the channel; buffered events
	// published during the batch stay readable until then.
	unsubscribe()
	printLoadEvents(cmd, events)
	return err
}

func resolveBatch(ctx context.Context, b *box.Box, mgr *streaming.Manager, args []string) error {
	if loadClasses {
		refs := make([]*asset.SoftClassRef, 0, len(args))
		for _, a := range args {
			refs = append(refs, asset.NewSoftClassRef(asset.Path(a)))
		}
		var base *asset.Class
		if loadBase != "" {
			base = mgr.Classes().GetOrCreate(loadBase, nil)
		}

		if loadAsync {
			done := make(chan struct{})
			b.RequestAsyncLoadClasses(refs, base, func() { close(done) })
			select {
			case <-done:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		}
		b.LoadClassesSync(ctx, refs, base)
		return nil
	}

	refs := make([]*asset.SoftObjectRef, 0, len(args))
	for _, a := range args {
		refs = append(refs, asset.NewSoftObjectRef(asset.Path(a)))
	}

	if loadAsync {
		done := make(chan struct{})
		b.RequestAsyncLoadObjects(refs, func() { close(done) })
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	}
	b.LoadObjectsSync(ctx, refs)
	return nil
}

// printLoadEvents drains a closed event subscription in arrival order.
func printLoadEvents(cmd *cobra.Command, events <-chan pubsub.Event[streaming.LoadEvent]) {
	for ev := range events {
		switch ev.Type {
		case pubsub.ResolvedEvent:
			cmd.Printf("resolved %s (%s)\n", ev.Payload.Path, ev.Payload.Name)
		case pubsub.FailedEvent:
			cmd.Printf("failed   %s: %v\n", ev.Payload.Path, ev.Payload.Err)
		}
	}
}

func printSummary(cmd *cobra.Command, b *box.Box) {
	cmd.Printf("box %s: loaded=%d soft_objects=%d soft_classes=%d\n",
		b.DebugID(), b.LoadedCount(), b.SoftObjectCount(), b.SoftClassCount())
}

// watchManifest blocks until interrupted, re-resolving the batch whenever
// the yaml manifest changes on disk.
func watchManifest(ctx context.Context, cmd *cobra.Command, b *box.Box, mgr *streaming.Manager, args []string) error {
	yamlSrc, ok := catalogSource(mgr)
	if !ok {
		return fmt.Errorf("--watch requires the yaml catalog driver")
	}

	wcfg := catalog.DefaultWatcherConfig(cfg.Catalog.Path)
	if cfg.Catalog.ReloadDebounce > 0 {
		wcfg.DebounceDur = cfg.Catalog.ReloadDebounce
	}
	watcher, err := catalog.NewWatcher(wcfg)
	if err != nil {
		return fmt.Errorf("create manifest watcher: %w", err)
	}
	changes, err := watcher.Start()
	if err != nil {
		return fmt.Errorf("start manifest watcher: %w", err)
	}
	defer func() { _ = watcher.Stop() }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	cmd.Printf("watching %s (ctrl-c to stop)\n", cfg.Catalog.Path)
	for {
		select {
		case <-changes:
			log.Info(log.CatCLI, "Manifest changed, re-resolving", "file", cfg.Catalog.Path)
			if err := yamlSrc.Reload(); err != nil {
				cmd.Printf("reload failed: %v\n", err)
				continue
			}
			b.UnloadAllObjects()
			mgr.Flush()
			if err := loadBatch(ctx, cmd, b, mgr, args); err != nil {
				return err
			}
			printSummary(cmd, b)

		case <-sig:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// catalogSource recovers the yaml source backing the manager, when there
// is one. Only the yaml driver supports hot reload.
func catalogSource(mgr *streaming.Manager) (*catalog.YAMLSource, bool) {
	src, ok := mgr.Source().(*catalog.YAMLSource)
	return src, ok
}
