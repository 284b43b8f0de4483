package models

import (
	"github.com/zeusync/dataobjects/internal/core/events/bus"
	"github.com/zeusync/dataobjects/internal/core/observability/log"
)

// Entity is a data-class object owned by a Registry: devices, sources, datasets,
// processors and displays. Implementations embed Base, which supplies identity,
// the owner back-reference and default hooks.
type Entity interface {
	// Basic identity

	ID() EntityID
	UniqueID() string
	SetUniqueID(string) error
	Name() string
	SetName(string)
	Type() *TypeDescriptor
	Context() string
	IsPublic() bool

	// Owner back-reference. It is never an ownership edge: the owner's deletion clears it.

	Owner() (Entity, bool)
	SetOwner(Entity)

	Events() *bus.Hub
	Log() log.Log

	// Hooks

	IsDataSet() bool
	IsBlock() bool
	// CascadeDelete runs after the pre-deletion notification and before destruction.
	// Returning false aborts the deletion; subscribers have already seen the notification.
	CascadeDelete() bool
	// CollectDependencies appends entities that must be created or restored before this one.
	CollectDependencies(out []Entity) []Entity

	base() *Base
}

// Destroyer is implemented by entities that release resources when the registry destroys them.
type Destroyer interface {
	Destroy()
}

// Base is embedded by every Entity. Its zero value is a raw, unregistered entity.
type Base struct {
	id       EntityID
	uniqueID string
	name     string
	typ      *TypeDescriptor
	context  string
	public   bool

	registry *Registry
	logger   log.Log
	events   *bus.Hub

	owner    EntityID
	ownerSub bus.Subscription

	deleting  bool
	destroyed bool
}

func (b *Base) base() *Base { return b }

func (b *Base) ID() EntityID          { return b.id }
func (b *Base) UniqueID() string      { return b.uniqueID }
func (b *Base) Name() string          { return b.name }
func (b *Base) Type() *TypeDescriptor { return b.typ }
func (b *Base) Context() string       { return b.context }
func (b *Base) IsPublic() bool        { return b.public }

// Registry returns the registry the entity was added to, or nil before registration.
func (b *Base) Registry() *Registry { return b.registry }

// Registered reports whether the entity is live in a registry.
func (b *Base) Registered() bool { return b.registry != nil && !b.destroyed }

func (b *Base) SetName(name string) {
	if b.name == name {
		return
	}
	b.name = name
	b.Events().Publish(bus.Event{Kind: bus.Renamed, Source: uint64(b.id), Data: name})
}

// SetUniqueID renames the unique id. Before registration this is a local change;
// afterwards the registry keeps its table consistent and refuses collisions.
func (b *Base) SetUniqueID(uniqueID string) error {
	if b.registry == nil {
		b.uniqueID = uniqueID
		return nil
	}
	return b.registry.ReplaceUniqueID(b.uniqueID, uniqueID)
}

func (b *Base) Events() *bus.Hub {
	if b.events == nil {
		b.events = bus.NewHub()
	}
	return b.events
}

func (b *Base) Log() log.Log {
	if b.logger == nil {
		return log.NewNop()
	}
	return b.logger
}

func (b *Base) Owner() (Entity, bool) {
	if b.owner.IsZero() || b.registry == nil {
		return nil, false
	}
	return b.registry.Find(b.owner)
}

// IsOwnedBy reports whether e is the current owner, without a registry lookup.
func (b *Base) IsOwnedBy(e Entity) bool {
	return e != nil && !b.owner.IsZero() && b.owner == e.ID()
}

// SetOwner replaces the owner back-reference. The previous owner's deletion subscription is
// dropped and a new one installed so the reference clears itself when the owner goes away.
func (b *Base) SetOwner(owner Entity) {
	if owner != nil && owner.ID() == b.owner && b.ownerSub != nil && b.ownerSub.IsActive() {
		return
	}
	b.detachOwner()

	if owner != nil && !owner.ID().IsZero() {
		b.owner = owner.ID()
		b.ownerSub = owner.Events().Subscribe(bus.AboutToDelete, func(bus.Event) {
			b.detachOwner()
			b.Events().Publish(bus.Event{Kind: bus.OwnerChanged, Source: uint64(b.id)})
		})
	}
	b.Events().Publish(bus.Event{Kind: bus.OwnerChanged, Source: uint64(b.id), Data: uint64(b.owner)})
}

func (b *Base) detachOwner() {
	if b.ownerSub != nil {
		b.ownerSub.Cancel()
		b.ownerSub = nil
	}
	b.owner = 0
}

func (b *Base) IsDataSet() bool { return false }
func (b *Base) IsBlock() bool   { return false }

func (b *Base) CascadeDelete() bool { return true }

func (b *Base) CollectDependencies(out []Entity) []Entity { return out }

// release runs after the entity's own Destroy; it drops every subscription the entity holds or serves.
func (b *Base) release() {
	b.detachOwner()
	if b.events != nil {
		b.events.Close()
	}
	b.destroyed = true
}
