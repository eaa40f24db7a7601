package portfolio

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Modelable is implemented by records persisted to the database.
type Modelable interface {
	Exists() bool
}

// A Model is the essential data points for primary ID-based models in a portfolio application,
// indicating when a record was created and last updated.
//
// Models that can be soft deleted also embed a SoftDelete.
type Model struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Exists asserts whether the Model has been persisted.
func (m Model) Exists() bool { return !m.CreatedAt.IsZero() }

// SetUpdatedAt records t as the last time the Model changed.
//
// SetUpdatedAt implements HasTimestamps.
func (m *Model) SetUpdatedAt(t time.Time) { m.UpdatedAt = t }

// HasTimestamps is implemented by records tracking when they were last modified.
type HasTimestamps interface {
	SetUpdatedAt(t time.Time)
}

// DeletedTime is a nullable timestamp marking when a record was soft deleted.
type DeletedTime struct {
	sql.NullTime
}

// IsDeleted asserts whether the timestamp is set.
func (dt DeletedTime) IsDeleted() bool { return dt.Valid }

// MarshalJSON renders DeletedTime as a timestamp or null.
//
// MarshalJSON implements [encoding/json.Marshaler].
func (dt DeletedTime) MarshalJSON() ([]byte, error) {
	if !dt.Valid {
		return []byte("null"), nil
	}

	return json.Marshal(dt.Time)
}

// UnmarshalJSON sets DeletedTime from a timestamp or null.
//
// UnmarshalJSON implements [encoding/json.Unmarshaler].
func (dt *DeletedTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*dt = DeletedTime{}
		return nil
	}

	if err := json.Unmarshal(b, &dt.Time); err != nil {
		return fmt.Errorf("%w: %s", ErrBadFormat, err)
	}

	dt.Valid = true
	return nil
}

// NowFunc returns the current time used when stamping records.
//
// Timestamps are truncated to microseconds, the precision PostgreSQL stores.
var NowFunc = func() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
