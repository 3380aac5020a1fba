package box

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/cachebox/internal/asset"
	"github.com/zjrosen/cachebox/internal/catalog"
	"github.com/zjrosen/cachebox/internal/memory"
	"github.com/zjrosen/cachebox/internal/streaming"
	"github.com/zjrosen/cachebox/internal/world"
)

func testEntries() []catalog.Entry {
	return []catalog.Entry{
		{Path: "/classes/pawn", Kind: catalog.KindClass, Name: "Pawn"},
		{Path: "/classes/character", Kind: catalog.KindClass, Name: "Character", Parent: "Pawn"},
		{Path: "/classes/widget", Kind: catalog.KindClass, Name: "HUDWidget"},
		{Path: "/objects/crate", Kind: catalog.KindObject, Name: "Crate", Class: "StaticMesh"},
		{Path: "/objects/barrel", Kind: catalog.KindObject, Name: "Barrel", Class: "StaticMesh"},
		{Path: "/objects/sound", Kind: catalog.KindObject, Name: "Ambient", Class: "SoundCue"},
	}
}

type fixture struct {
	mgr       *streaming.Manager
	world     *world.SimWorld
	reclaimer *memory.Reclaimer
	box       *Box
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithSource(t, catalog.NewMapSource(testEntries()...))
}

func newFixtureWithSource(t *testing.T, src catalog.Source) *fixture {
	t.Helper()

	mgr := streaming.NewManager(streaming.Config{Source: src})
	t.Cleanup(mgr.Close)

	w := world.NewSimWorld()
	w.SetContext("test")

	reclaimer := memory.NewReclaimer()
	b, err := New(Config{Owner: "test", Stream: mgr, World: w, Reclaimer: reclaimer})
	require.NoError(t, err)
	t.Cleanup(func() { b.DestroyBox() })

	return &fixture{mgr: mgr, world: w, reclaimer: reclaimer, box: b}
}

func TestNewRequiresStream(t *testing.T) {
	_, err := New(Config{})
	require.ErrorIs(t, err, ErrNoStream)
}

func TestNewDefaultsReclaimer(t *testing.T) {
	mgr := streaming.NewManager(streaming.Config{Source: catalog.NewMapSource()})
	t.Cleanup(mgr.Close)

	b, err := New(Config{Stream: mgr})
	require.NoError(t, err)
	require.NotNil(t, b.Reclaimer())
}

func TestCreateObject(t *testing.T) {
	f := newFixture(t)
	class := asset.NewClass("Crate", nil)

	obj, err := f.box.CreateObject(class)
	require.NoError(t, err)
	require.Equal(t, "Crate", obj.Name())
	require.Equal(t, 1, f.box.CreatedCount())
	require.Equal(t, 0, f.box.LoadedCount(), "creation never touches the loaded set")
}

func TestCreateObjectNilClass(t *testing.T) {
	f := newFixture(t)

	_, err := f.box.CreateObject(nil)
	require.ErrorIs(t, err, asset.ErrNilClass)
	require.Equal(t, 0, f.box.CreatedCount())
}

func TestCreateObjectFactoryFailure(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("boom")
	class := asset.NewClassWithFactory("Broken", nil, func(c *asset.Class) (asset.Object, error) {
		return nil, boom
	})

	_, err := f.box.CreateObject(class)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, f.box.CreatedCount(), "failed creations are not tracked")
}

func TestCreateWidget(t *testing.T) {
	f := newFixture(t)
	class := asset.NewClass("HUD", nil)

	w, err := f.box.CreateWidget(class)
	require.NoError(t, err)
	require.Equal(t, 1, f.box.CreatedCount())
	require.Equal(t, 1, f.world.AttachedWidgetCount())
	require.NotNil(t, w)
}

func TestCreateWidgetWithoutContext(t *testing.T) {
	f := newFixture(t)
	f.world.ClearContext()

	_, err := f.box.CreateWidget(asset.NewClass("HUD", nil))
	require.ErrorIs(t, err, world.ErrNoContext)
	require.Equal(t, 0, f.box.CreatedCount())
}

func TestCreateWidgetWithoutWorld(t *testing.T) {
	mgr := streaming.NewManager(streaming.Config{Source: catalog.NewMapSource()})
	t.Cleanup(mgr.Close)
	b, err := New(Config{Stream: mgr})
	require.NoError(t, err)

	_, err = b.CreateWidget(asset.NewClass("HUD", nil))
	require.ErrorIs(t, err, ErrNoWorld)
}

func TestCreateActor(t *testing.T) {
	f := newFixture(t)
	class := asset.NewClass("Pawn", nil)

	a, err := f.box.CreateActor(class, nil)
	require.NoError(t, err)
	require.True(t, f.world.Contains(a))
	require.Equal(t, 1, f.box.CreatedCount())
}

func TestCreateActorMatchingBase(t *testing.T) {
	f := newFixture(t)
	base := asset.NewClass("Pawn", nil)
	child := asset.NewClass("Character", base)

	a, err := f.box.CreateActor(child, base)
	require.NoError(t, err)
	require.True(t, f.world.Contains(a))
}

func TestCreateActorClassMismatchDestroysSpawn(t *testing.T) {
	f := newFixture(t)
	spawn := asset.NewClass("Turret", nil)
	want := asset.NewClass("Pawn", nil)

	_, err := f.box.CreateActor(spawn, want)
	require.ErrorIs(t, err, ErrClassMismatch)

	// The mismatched spawn must not survive in the world untracked.
	require.Equal(t, 0, f.world.ActorCount())
	require.Equal(t, 0, f.box.CreatedCount())
}

func TestCreateActorWithoutWorld(t *testing.T) {
	mgr := streaming.NewManager(streaming.Config{Source: catalog.NewMapSource()})
	t.Cleanup(mgr.Close)
	b, err := New(Config{Stream: mgr})
	require.NoError(t, err)

	_, err = b.CreateActor(asset.NewClass("Pawn", nil), nil)
	require.ErrorIs(t, err, ErrNoWorld)
}

func TestCreateMaterialInstance(t *testing.T) {
	f := newFixture(t)
	mat := asset.NewMaterial("Glow", map[string]float64{"intensity": 1})

	mi, err := f.box.CreateMaterialInstance(mat, nil)
	require.NoError(t, err)
	require.Same(t, mat, mi.Parent())
	require.Equal(t, 1, f.box.CreatedCount())
}

func TestCreateMaterialInstanceNilParent(t *testing.T) {
	f := newFixture(t)

	_, err := f.box.CreateMaterialInstance(nil, nil)
	require.ErrorIs(t, err, asset.ErrNilParent)
}

func TestCreateOnDestroyedBox(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.box.DestroyBox())

	_, err := f.box.CreateObject(asset.NewClass("Crate", nil))
	require.ErrorIs(t, err, ErrBoxDestroyed)

	_, err = f.box.CreateWidget(asset.NewClass("HUD", nil))
	require.ErrorIs(t, err, ErrBoxDestroyed)

	_, err = f.box.CreateActor(asset.NewClass("Pawn", nil), nil)
	require.ErrorIs(t, err, ErrBoxDestroyed)

	_, err = f.box.CreateMaterialInstance(asset.NewMaterial("Glow", nil), nil)
	require.ErrorIs(t, err, ErrBoxDestroyed)
}
