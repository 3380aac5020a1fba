package box

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/cachebox/internal/asset"
	"github.com/zjrosen/cachebox/internal/catalog"
)

func TestLoadObjectSync(t *testing.T) {
	f := newFixture(t)
	ref := asset.NewSoftObjectRef("/objects/crate")

	obj, err := f.box.LoadObjectSync(context.Background(), ref)
	require.NoError(t, err)
	require.Equal(t, "Crate", obj.Name())
	require.True(t, ref.IsValid())
	require.Same(t, obj, ref.Get())

	require.Equal(t, 1, f.box.LoadedCount())
	require.Equal(t, 1, f.box.SoftObjectCount())
	require.Equal(t, 0, f.box.CreatedCount(), "loading never touches the created set")
}

func TestLoadObjectSyncNullRef(t *testing.T) {
	f := newFixture(t)

	_, err := f.box.LoadObjectSync(context.Background(), asset.NewSoftObjectRef(""))
	require.ErrorIs(t, err, asset.ErrNullReference)

	_, err = f.box.LoadObjectSync(context.Background(), nil)
	require.ErrorIs(t, err, asset.ErrNullReference)
}

func TestLoadObjectSyncUnknownPath(t *testing.T) {
	f := newFixture(t)
	ref := asset.NewSoftObjectRef("/missing")

	_, err := f.box.LoadObjectSync(context.Background(), ref)
	require.ErrorIs(t, err, catalog.ErrNotFound)
	require.False(t, ref.IsValid())
	require.Equal(t, 0, f.box.LoadedCount())
	require.Equal(t, 0, f.box.SoftObjectCount())
}

func TestLoadObjectsSyncSkipsNullsAndFailures(t *testing.T) {
	f := newFixture(t)
	refs := []*asset.SoftObjectRef{
		asset.NewSoftObjectRef("/objects/crate"),
		asset.NewSoftObjectRef(""),
		asset.NewSoftObjectRef("/missing"),
		asset.NewSoftObjectRef("/objects/barrel"),
	}

	loaded := f.box.LoadObjectsSync(context.Background(), refs)
	require.Len(t, loaded, 2)
	require.Equal(t, "Crate", loaded[0].Name())
	require.Equal(t, "Barrel", loaded[1].Name())
	require.Equal(t, 2, f.box.LoadedCount())
}

func TestLoadClassSync(t *testing.T) {
	f := newFixture(t)
	ref := asset.NewSoftClassRef("/classes/character")

	cls, err := f.box.LoadClassSync(context.Background(), ref, nil)
	require.NoError(t, err)
	require.Equal(t, "Character", cls.Name())
	require.True(t, ref.IsValid())

	require.Equal(t, 1, f.box.LoadedCount())
	require.Equal(t, 1, f.box.SoftClassCount())
	require.Equal(t, 0, f.box.SoftObjectCount())
}

func TestLoadClassSyncWithMatchingBase(t *testing.T) {
	f := newFixture(t)
	base := f.mgr.Classes().GetOrCreate("Pawn", nil)
	ref := asset.NewSoftClassRef("/classes/character")

	cls, err := f.box.LoadClassSync(context.Background(), ref, base)
	require.NoError(t, err)
	require.True(t, cls.Extends(base))
}

func TestLoadClassSyncBaseMismatch(t *testing.T) {
	f := newFixture(t)
	base := f.mgr.Classes().GetOrCreate("Widget", nil)
	ref := asset.NewSoftClassRef("/classes/character")

	_, err := f.box.LoadClassSync(context.Background(), ref, base)
	require.ErrorIs(t, err, ErrClassMismatch)
	require.False(t, ref.IsValid())
	require.Equal(t, 0, f.box.LoadedCount())
}

func TestLoadClassSyncNonClassPath(t *testing.T) {
	f := newFixture(t)
	ref := asset.NewSoftClassRef("/objects/crate")

	_, err := f.box.LoadClassSync(context.Background(), ref, nil)
	require.ErrorIs(t, err, ErrNotAClass)
	require.Equal(t, 0, f.box.SoftClassCount())
}

func TestLoadClassesSync(t *testing.T) {
	f := newFixture(t)
	refs := []*asset.SoftClassRef{
		asset.NewSoftClassRef("/classes/pawn"),
		asset.NewSoftClassRef(""),
		asset.NewSoftClassRef("/classes/widget"),
	}

	classes := f.box.LoadClassesSync(context.Background(), refs, nil)
	require.Len(t, classes, 2)
	require.Equal(t, 2, f.box.SoftClassCount())
}

func TestLoadSyncOnDestroyedBox(t *testing.T) {
	f := newFixture(t)
	f.box.DestroyBox()

	_, err := f.box.LoadObjectSync(context.Background(), asset.NewSoftObjectRef("/objects/crate"))
	require.ErrorIs(t, err, ErrBoxDestroyed)

	_, err = f.box.LoadClassSync(context.Background(), asset.NewSoftClassRef("/classes/pawn"), nil)
	require.ErrorIs(t, err, ErrBoxDestroyed)
}

func TestRequestAsyncLoadObjects(t *testing.T) {
	f := newFixture(t)
	refs := []*asset.SoftObjectRef{
		asset.NewSoftObjectRef("/objects/crate"),
		asset.NewSoftObjectRef("/objects/barrel"),
		asset.NewSoftObjectRef("/objects/sound"),
		asset.NewSoftObjectRef(""),
	}

	var completions atomic.Int32
	done := make(chan struct{})
	f.box.RequestAsyncLoadObjects(refs, func() {
		completions.Add(1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("batch never completed")
	}

	require.Equal(t, int32(1), completions.Load(), "the aggregate signal fires exactly once")
	require.Equal(t, 3, f.box.LoadedCount(), "the null entry is filtered, not attempted")
	require.Equal(t, 3, f.box.SoftObjectCount())
	for _, ref := range refs[:3] {
		require.True(t, ref.IsValid())
	}
	require.False(t, refs[3].IsValid())
}

func TestRequestAsyncLoadObjectsAllNull(t *testing.T) {
	f := newFixture(t)
	refs := []*asset.SoftObjectRef{
		asset.NewSoftObjectRef(""),
		nil,
	}

	var completed atomic.Bool
	f.box.RequestAsyncLoadObjects(refs, func() { completed.Store(true) })
	require.True(t, completed.Load(), "a fully filtered batch completes before return")
	require.Equal(t, 0, f.box.LoadedCount())
}

func TestRequestAsyncLoadObjectsEmpty(t *testing.T) {
	f := newFixture(t)

	var completed atomic.Bool
	f.box.RequestAsyncLoadObjects(nil, func() { completed.Store(true) })
	require.True(t, completed.Load())
}

func TestRequestAsyncLoadObjectsWithFailures(t *testing.T) {
	f := newFixture(t)
	refs := []*asset.SoftObjectRef{
		asset.NewSoftObjectRef("/objects/crate"),
		asset.NewSoftObjectRef("/missing"),
	}

	done := make(chan struct{})
	f.box.RequestAsyncLoadObjects(refs, func() { close(done) })

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("batch never completed")
	}

	require.Equal(t, 1, f.box.LoadedCount())
	require.True(t, refs[0].IsValid())
	require.False(t, refs[1].IsValid())
}

func TestRequestAsyncLoadClasses(t *testing.T) {
	f := newFixture(t)
	base := f.mgr.Classes().GetOrCreate("Pawn", nil)
	refs := []*asset.SoftClassRef{
		asset.NewSoftClassRef("/classes/character"), // extends Pawn
		asset.NewSoftClassRef("/classes/widget"),    // does not
		asset.NewSoftClassRef("/objects/crate"),     // not a class
	}

	done := make(chan struct{})
	f.box.RequestAsyncLoadClasses(refs, base, func() { close(done) })

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("batch never completed")
	}

	// Mismatches and non-classes are skipped without failing the batch.
	require.Equal(t, 1, f.box.LoadedCount())
	require.Equal(t, 1, f.box.SoftClassCount())
	require.True(t, refs[0].IsValid())
	require.False(t, refs[1].IsValid())
	require.False(t, refs[2].IsValid())
}

func TestRequestAsyncLoadOnDestroyedBoxIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.box.DestroyBox()

	var completed atomic.Bool
	f.box.RequestAsyncLoadObjects(
		[]*asset.SoftObjectRef{asset.NewSoftObjectRef("/objects/crate")},
		func() { completed.Store(true) },
	)
	require.False(t, completed.Load(), "a destroyed box drops the request entirely")
	require.Equal(t, 0, f.box.LoadedCount())
}

// gateSource blocks Resolve until the gate channel is closed, letting the
// test order a box teardown before its in-flight batch completes.
type gateSource struct {
	inner catalog.Source
	gate  chan struct{}
}

func (g *gateSource) Resolve(ctx context.Context, path asset.Path) (catalog.Entry, error) {
	<-g.gate
	return g.inner.Resolve(ctx, path)
}

func (g *gateSource) List(ctx context.Context) ([]catalog.Entry, error) {
	return g.inner.List(ctx)
}

func TestAsyncCompletionAfterDestroyIsDropped(t *testing.T) {
	gate := make(chan struct{})
	src := &gateSource{inner: catalog.NewMapSource(testEntries()...), gate: gate}
	f := newFixtureWithSource(t, src)

	ref := asset.NewSoftObjectRef("/objects/crate")
	var completed atomic.Bool
	f.box.RequestAsyncLoadObjects([]*asset.SoftObjectRef{ref}, func() { completed.Store(true) })

	// Tear the box down while the batch is still blocked in the source.
	require.True(t, f.box.DestroyBox())
	close(gate)

	// Close waits for the in-flight batch, so the completion closure has
	// run (and been dropped) by the time it returns.
	f.mgr.Close()

	require.False(t, completed.Load(), "completions for a destroyed box are silent")
	require.False(t, ref.IsValid())
	require.Equal(t, 0, f.box.LoadedCount())
	require.Equal(t, 0, f.box.SoftObjectCount())
}
