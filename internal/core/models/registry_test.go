package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/dataobjects/internal/core/events/bus"
	"github.com/zeusync/dataobjects/internal/core/observability/log"
)

type fakeEntity struct {
	Base
	deps    []Entity
	refuse  bool
	cascade func()
}

func (f *fakeEntity) CollectDependencies(out []Entity) []Entity { return append(out, f.deps...) }

func (f *fakeEntity) CascadeDelete() bool {
	if f.cascade != nil {
		f.cascade()
	}
	return !f.refuse
}

type testFactory struct{}

func (testFactory) Types() []TypeSpec {
	return []TypeSpec{
		{Name: "Sensor", Kind: KindDevice},
		{Name: "Channel", Kind: KindSource},
		{Name: "Filter", Kind: KindProcessor},
		{Name: "Plot", Kind: KindDisplay},
	}
}

func (testFactory) Build(t *TypeDescriptor) Entity {
	if t.FullName() == "Broken" {
		return nil
	}
	return &fakeEntity{}
}

func newObservedRegistry(t *testing.T) (*Registry, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	r := NewRegistry(log.NewFromZap(zap.New(core, zap.WithFatalHook(zapcore.WriteThenPanic))))
	require.NoError(t, r.RegisterFactory(testFactory{}))
	return r, logs
}

func mustAdd(t *testing.T, r *Registry, typeName string, owner Entity) *fakeEntity {
	t.Helper()
	typ, ok := r.Type(typeName)
	require.True(t, ok, typeName)
	e, ok := r.Create(typ)
	require.True(t, ok)
	require.NoError(t, r.Add(e, owner, typ, "test", true))
	return e.(*fakeEntity)
}

func TestRegistry_CreateAndAdd(t *testing.T) {
	r, _ := newObservedRegistry(t)

	t.Run("Default names", func(t *testing.T) {
		first := mustAdd(t, r, "Sensor", nil)
		second := mustAdd(t, r, "Sensor", nil)
		third := mustAdd(t, r, "Sensor", nil)
		assert.Equal(t, "Sensor", first.Name())
		assert.Equal(t, "Sensor 2", second.Name())
		assert.Equal(t, "Sensor 3", third.Name())
	})

	t.Run("Identity", func(t *testing.T) {
		e := mustAdd(t, r, "Channel", nil)
		require.False(t, e.ID().IsZero())
		_, err := uuid.Parse(e.UniqueID())
		require.NoError(t, err)
		assert.Equal(t, KindSource, e.Type().Kind())
		assert.Equal(t, "test", e.Context())
		assert.True(t, e.IsPublic())

		found, ok := r.Find(e.ID())
		require.True(t, ok)
		assert.Same(t, e, found)
		found, ok = r.FindUnique(e.UniqueID())
		require.True(t, ok)
		assert.Same(t, e, found)
	})

	t.Run("Preset unique id is kept", func(t *testing.T) {
		typ, _ := r.Type("Channel")
		e, _ := r.Create(typ)
		require.NoError(t, e.SetUniqueID("channel-a"))
		require.NoError(t, r.Add(e, nil, typ, "", false))
		assert.Equal(t, "channel-a", e.UniqueID())

		clash, _ := r.Create(typ)
		require.NoError(t, clash.SetUniqueID("channel-a"))
		require.NoError(t, r.Add(clash, nil, typ, "", false))
		assert.NotEqual(t, "channel-a", clash.UniqueID())
	})

	t.Run("Add twice", func(t *testing.T) {
		e := mustAdd(t, r, "Channel", nil)
		require.ErrorIs(t, r.Add(e, nil, e.Type(), "", false), ErrAlreadyRegistered)
		require.ErrorIs(t, r.Add(nil, nil, e.Type(), "", false), ErrNilEntity)
	})

	t.Run("Factory cannot build", func(t *testing.T) {
		require.NoError(t, r.RegisterFactory(FactoryFunc{
			Spec: TypeSpec{Name: "Broken", Kind: KindDevice},
			New:  func(*TypeDescriptor) Entity { return nil },
		}))
		_, ok := r.CreateByName("Broken")
		assert.False(t, ok)
		_, ok = r.CreateByName("Missing")
		assert.False(t, ok)
		_, ok = r.Create(nil)
		assert.False(t, ok)
	})
}

func TestRegistry_RegisterFactoryDuplicate(t *testing.T) {
	r, logs := newObservedRegistry(t)
	before := len(r.Types())

	err := r.RegisterFactory(FactoryFunc{Spec: TypeSpec{Name: "Sensor", Kind: KindDevice}})
	require.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, ClassDuplicate, Class(err))
	assert.Len(t, r.Types(), before)
	assert.Equal(t, 1, logs.FilterMessage("Type already registered").Len())
}

func TestRegistry_IDsNeverReused(t *testing.T) {
	r, _ := newObservedRegistry(t)

	seen := make(map[EntityID]bool)
	var last EntityID
	for i := 0; i < 50; i++ {
		e := mustAdd(t, r, "Channel", nil)
		require.False(t, seen[e.ID()], "id reused")
		require.Greater(t, e.ID(), last)
		seen[e.ID()] = true
		last = e.ID()
		if i%2 == 0 {
			stale := e.ID()
			r.Delete(stale)
			_, ok := r.Find(stale)
			require.False(t, ok)
		}
	}
	assert.Equal(t, 25, r.Len())
}

func TestRegistry_ReplaceUniqueID(t *testing.T) {
	r, logs := newObservedRegistry(t)
	a := mustAdd(t, r, "Channel", nil)
	b := mustAdd(t, r, "Channel", nil)
	aID, bID := a.UniqueID(), b.UniqueID()

	t.Run("Same id", func(t *testing.T) {
		require.NoError(t, r.ReplaceUniqueID(aID, aID))
	})

	t.Run("Collision", func(t *testing.T) {
		err := r.ReplaceUniqueID(aID, bID)
		require.ErrorIs(t, err, ErrDuplicate)
		assert.Equal(t, aID, a.UniqueID())
		found, ok := r.FindUnique(bID)
		require.True(t, ok)
		assert.Same(t, b, found)
		found, ok = r.FindUnique(aID)
		require.True(t, ok)
		assert.Same(t, a, found)
		assert.Equal(t, 1, logs.FilterMessage("Unique id already in use").Len())
	})

	t.Run("Unknown old id", func(t *testing.T) {
		require.ErrorIs(t, r.ReplaceUniqueID("missing", "other"), ErrNotFound)
	})

	t.Run("Rename", func(t *testing.T) {
		renamed := 0
		a.Events().Subscribe(bus.Renamed, func(bus.Event) { renamed++ })
		require.NoError(t, a.SetUniqueID("alpha"))
		assert.Equal(t, "alpha", a.UniqueID())
		_, ok := r.FindUnique(aID)
		assert.False(t, ok)
		found, ok := r.FindUnique("alpha")
		require.True(t, ok)
		assert.Same(t, a, found)
		assert.Equal(t, 1, renamed)
	})
}

func TestRegistry_OwnerAutoClear(t *testing.T) {
	r, _ := newObservedRegistry(t)
	owner := mustAdd(t, r, "Sensor", nil)
	child := mustAdd(t, r, "Channel", owner)

	got, ok := child.Owner()
	require.True(t, ok)
	assert.Same(t, owner, got)

	changes := 0
	child.Events().Subscribe(bus.OwnerChanged, func(bus.Event) { changes++ })

	r.Delete(owner.ID())
	_, ok = child.Owner()
	assert.False(t, ok)
	assert.Equal(t, 1, changes)

	_, ok = r.Find(child.ID())
	assert.True(t, ok, "owner back-reference is not an ownership edge")
}

func TestRegistry_SetOwnerReplacesSubscription(t *testing.T) {
	r, _ := newObservedRegistry(t)
	first := mustAdd(t, r, "Sensor", nil)
	second := mustAdd(t, r, "Sensor", nil)
	child := mustAdd(t, r, "Channel", first)

	child.SetOwner(second)
	assert.Equal(t, 0, first.Events().Len(bus.AboutToDelete))

	r.Delete(first.ID())
	got, ok := child.Owner()
	require.True(t, ok)
	assert.Same(t, second, got)

	child.SetOwner(nil)
	_, ok = child.Owner()
	assert.False(t, ok)
}

func TestRegistry_DeleteOrdering(t *testing.T) {
	r, _ := newObservedRegistry(t)
	parent := mustAdd(t, r, "Channel", nil)
	dependent := mustAdd(t, r, "Channel", parent)

	var steps []string
	parent.Events().Subscribe(bus.AboutToDelete, func(bus.Event) {
		steps = append(steps, "notify")
		_, ok := r.Find(parent.ID())
		assert.True(t, ok, "entity must resolve during notification")
	})
	parent.cascade = func() {
		steps = append(steps, "cascade")
		found, ok := r.FindUnique(parent.UniqueID())
		assert.True(t, ok)
		assert.Same(t, parent, found)
		r.Delete(dependent.ID())
		// re-entrant delete of the entity being deleted is ignored
		r.Delete(parent.ID())
	}

	uniqueID := parent.UniqueID()
	r.Delete(parent.ID())

	assert.Equal(t, []string{"notify", "cascade"}, steps)
	_, ok := r.Find(parent.ID())
	assert.False(t, ok)
	_, ok = r.FindUnique(uniqueID)
	assert.False(t, ok)
	_, ok = r.Find(dependent.ID())
	assert.False(t, ok)

	// unknown ids are ignored
	r.Delete(parent.ID())
	r.Delete(0)
}

func TestRegistry_DeleteRefused(t *testing.T) {
	r, logs := newObservedRegistry(t)
	e := mustAdd(t, r, "Channel", nil)
	e.refuse = true
	child := mustAdd(t, r, "Sensor", e)
	var notified int
	e.Events().Subscribe(bus.AboutToDelete, func(bus.Event) { notified++ })

	r.Delete(e.ID())
	_, ok := r.Find(e.ID())
	assert.True(t, ok)
	assert.Equal(t, 1, logs.FilterMessage("Deletion refused by cascade hook").Len())

	// subscribers already reacted to the notification and stay detached
	assert.Equal(t, 1, notified)
	_, ok = child.Owner()
	assert.False(t, ok)
	_, ok = r.Find(child.ID())
	assert.True(t, ok)

	e.refuse = false
	r.Delete(e.ID())
	_, ok = r.Find(e.ID())
	assert.False(t, ok)
}

func TestRegistry_DeleteAll(t *testing.T) {
	r, _ := newObservedRegistry(t)

	var order []string
	for _, name := range []string{"Channel", "Sensor", "Plot", "Filter", "Channel", "Plot"} {
		e := mustAdd(t, r, name, nil)
		e.Events().Subscribe(bus.AboutToDelete, func(bus.Event) {
			order = append(order, e.Type().FullName())
		})
	}

	r.DeleteAll()
	assert.Equal(t, []string{"Plot", "Plot", "Filter", "Sensor", "Channel", "Channel"}, order)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_DeleteAllWithCascade(t *testing.T) {
	r, _ := newObservedRegistry(t)
	a := mustAdd(t, r, "Channel", nil)
	b := mustAdd(t, r, "Channel", a)
	a.cascade = func() { r.Delete(b.ID()) }

	require.NotPanics(t, r.DeleteAll)
	assert.Equal(t, 0, r.Len())
}

func TestClass(t *testing.T) {
	assert.Equal(t, ClassNone, Class(nil))
	assert.Equal(t, ClassValidation, Class(ErrAlreadyRegistered))
	assert.Equal(t, ClassNotFound, Class(ErrEntityNotFound))
	assert.Equal(t, ClassDuplicate, Class(ErrUniqueIDTaken))
	assert.Equal(t, ClassAllocation, Class(ErrIDSpaceExhausted))
	assert.True(t, ClassAllocation.Fatal())
	assert.False(t, ClassNotFound.Fatal())
}
