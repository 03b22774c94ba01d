package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries the identity and audit timestamps of every stored record
type BaseEntity struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// NewBaseEntity stamps a fresh id and creation time
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// BaseAggregateRoot is embedded by products, categories, orders, receipts,
// partners and expenses. Mutating methods bump Version and queue events;
// services publish the queue only after the row is saved.
//
// The version the aggregate was read at is remembered separately, so a save
// can be made conditional on nobody having written the row since.
type BaseAggregateRoot struct {
	BaseEntity
	Version int `gorm:"not null;default:1"`

	pending   []DomainEvent `gorm:"-"`
	persisted int
}

// NewBaseAggregateRoot returns a root at version 1 with no pending events
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1}
}

func (a *BaseAggregateRoot) GetVersion() int { return a.Version }

// PersistedVersion is the version last read from or written to storage,
// zero for an aggregate that was never stored
func (a *BaseAggregateRoot) PersistedVersion() int { return a.persisted }

// MarkPersisted records that storage now holds the current Version
func (a *BaseAggregateRoot) MarkPersisted() { a.persisted = a.Version }

// IncrementVersion marks the aggregate as changed
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
	a.UpdatedAt = time.Now()
}

func (a *BaseAggregateRoot) AddDomainEvent(e DomainEvent) {
	a.pending = append(a.pending, e)
}

// GetDomainEvents returns queued events without clearing them
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent { return a.pending }

func (a *BaseAggregateRoot) ClearDomainEvents() { a.pending = nil }

// PullDomainEvents drains the queue
func (a *BaseAggregateRoot) PullDomainEvents() []DomainEvent {
	out := a.pending
	a.pending = nil
	return out
}

// Versioned is implemented by every aggregate root. Repositories use it for
// optimistic locking.
type Versioned interface {
	GetVersion() int
	PersistedVersion() int
	MarkPersisted()
}
