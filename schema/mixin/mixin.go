package mixin

import "time"

// ID adds an auto-incremented integer primary key.
type ID struct {
	Id int64 `db:",pk,generated=add"`
}

// Time adds CreatedAt and UpdatedAt timestamp columns.
// Both are maintained by the application.
//
// Example:
//
//	type Item struct {
//	    mixin.ID
//	    mixin.Time
//	}
type Time struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Touch sets UpdatedAt, and CreatedAt if it is unset.
func (t *Time) Touch(now time.Time) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
}

// CreateTime adds only the CreatedAt column.
// Useful when you only need creation tracking without update tracking.
type CreateTime struct {
	CreatedAt time.Time
}

// UpdateTime adds only the UpdatedAt column.
// Useful when you only need update tracking without creation tracking.
type UpdateTime struct {
	UpdatedAt time.Time
}

// SoftDelete adds a DeletedAt column for soft deletion support.
// When set, the entity is considered deleted but remains in the database.
type SoftDelete struct {
	DeletedAt *time.Time
}

// MarkDeleted sets DeletedAt.
func (s *SoftDelete) MarkDeleted(now time.Time) {
	s.DeletedAt = &now
}

// Deleted reports if DeletedAt is set.
func (s SoftDelete) Deleted() bool {
	return s.DeletedAt != nil
}

// TimeSoftDelete combines Time and SoftDelete mixins.
// Adds CreatedAt, UpdatedAt, and DeletedAt columns.
type TimeSoftDelete struct {
	Time
	SoftDelete
}

// RowVersion adds a concurrency token maintained by the database
// (rowversion on SQL Server). It is excluded from SET clauses.
type RowVersion struct {
	Version []byte `db:",rowversion"`
}

// TenantID adds a TenantId column for multi-tenant tables.
type TenantID struct {
	TenantId int
}
