package portfolio

import (
	"context"
	"database/sql"
	"time"
)

// A SoftDelete marks a record as logically removed without erasing it.
// Embed a SoftDelete by value in any model that can be soft deleted and restored.
//
// IsDeleted and DeletedAt always agree:
// IsDeleted is true if and only if DeletedAt is set.
// Use MarkDeleted and MarkUndeleted to change them.
type SoftDelete struct {
	IsDeleted bool        `gorm:"not null;default:false;index" json:"isDeleted"`
	DeletedAt DeletedTime `json:"deletedAt"`
}

// SoftDeleteState exposes the SoftDelete embedded in a record.
//
// SoftDeleteState implements SoftDeletable.
func (sd *SoftDelete) SoftDeleteState() *SoftDelete { return sd }

// Deleted asserts whether the record is soft deleted.
func (sd SoftDelete) Deleted() bool { return sd.IsDeleted }

// Active asserts whether the record is in active use.
func (sd SoftDelete) Active() bool { return !sd.IsDeleted }

func (sd *SoftDelete) markDeleted(at time.Time) {
	sd.IsDeleted = true
	sd.DeletedAt = DeletedTime{sql.NullTime{Time: at, Valid: true}}
}

func (sd *SoftDelete) markUndeleted() {
	sd.IsDeleted = false
	sd.DeletedAt = DeletedTime{}
}

// A SoftDeletable is a record embedding a SoftDelete
// and tracking when it was last updated.
//
// A pointer to a struct embedding both Model and SoftDelete is a SoftDeletable.
type SoftDeletable interface {
	HasTimestamps
	SoftDeleteState() *SoftDelete
}

// A Saver persists every field of record.
type Saver[T any] func(ctx context.Context, record T) error

// MarkDeleted soft deletes record and persists it with save.
//
// MarkDeleted sets IsDeleted, stamps DeletedAt and UpdatedAt with the current time,
// then calls save.
// Every call writes, including on a record already deleted;
// DeletedAt moves forward to the time of the latest call.
//
// The error save returns is returned as is.
// When save fails, record keeps its new state in memory
// while the store still holds the old one.
func MarkDeleted[T SoftDeletable](ctx context.Context, record T, save Saver[T]) error {
	now := NowFunc()
	record.SoftDeleteState().markDeleted(now)
	record.SetUpdatedAt(now)

	return save(ctx, record)
}

// MarkUndeleted restores record to active use and persists it with save.
//
// MarkUndeleted clears IsDeleted and DeletedAt, stamps UpdatedAt with the current time,
// then calls save.
// Errors behave as they do for MarkDeleted.
func MarkUndeleted[T SoftDeletable](ctx context.Context, record T, save Saver[T]) error {
	record.SoftDeleteState().markUndeleted()
	record.SetUpdatedAt(NowFunc())

	return save(ctx, record)
}
