package portfolio_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/portfolio"
)

type project struct {
	portfolio.Model
	portfolio.SoftDelete
	Title string
}

// memStore keeps copies of saved projects, as a database would.
type memStore struct {
	saves int
	rows  map[uint]project
	err   error
}

func newMemStore() *memStore { return &memStore{rows: make(map[uint]project)} }

func (s *memStore) save(_ context.Context, p *project) error {
	s.saves++
	if s.err != nil {
		return s.err
	}

	s.rows[p.ID] = *p
	return nil
}

// stepClock replaces portfolio.NowFunc with a clock advancing one second per call.
func stepClock(t *testing.T) time.Time {
	t.Helper()
	start := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	orig := portfolio.NowFunc
	calls := 0
	portfolio.NowFunc = func() time.Time {
		calls++
		return start.Add(time.Duration(calls) * time.Second)
	}
	t.Cleanup(func() { portfolio.NowFunc = orig })

	return start
}

func TestMarkDeleted(t *testing.T) {
	// Arrange
	start := stepClock(t)
	store := newMemStore()
	p := &project{Model: portfolio.Model{ID: 1, CreatedAt: start, UpdatedAt: start}, Title: "gopher"}
	require.True(t, p.Active())

	// Act
	err := portfolio.MarkDeleted(context.Background(), p, store.save)

	// Assert
	require.Nil(t, err)
	require.True(t, p.IsDeleted)
	require.True(t, p.DeletedAt.Valid)
	require.True(t, p.Deleted())
	require.Equal(t, p.DeletedAt.Time, p.UpdatedAt)
	require.True(t, p.UpdatedAt.After(start))

	saved := store.rows[p.ID]
	require.True(t, saved.IsDeleted)
	require.Equal(t, p.DeletedAt, saved.DeletedAt)
	require.Equal(t, "gopher", saved.Title)
}

func TestMarkUndeleted(t *testing.T) {
	// Arrange
	start := stepClock(t)
	store := newMemStore()
	p := &project{Model: portfolio.Model{ID: 1, CreatedAt: start, UpdatedAt: start}}
	require.Nil(t, portfolio.MarkDeleted(context.Background(), p, store.save))
	deletedUpdatedAt := p.UpdatedAt

	// Act
	err := portfolio.MarkUndeleted(context.Background(), p, store.save)

	// Assert
	require.Nil(t, err)
	require.False(t, p.IsDeleted)
	require.False(t, p.DeletedAt.Valid)
	require.True(t, p.UpdatedAt.After(deletedUpdatedAt))

	saved := store.rows[p.ID]
	require.False(t, saved.IsDeleted)
	require.False(t, saved.DeletedAt.Valid)
	require.Equal(t, 2, store.saves)
}

func TestMarkUndeleted_ActiveRecordStillWrites(t *testing.T) {
	// Arrange
	start := stepClock(t)
	store := newMemStore()
	p := &project{Model: portfolio.Model{ID: 3, CreatedAt: start, UpdatedAt: start}}

	// Act
	err := portfolio.MarkUndeleted(context.Background(), p, store.save)

	// Assert
	require.Nil(t, err)
	require.Equal(t, 1, store.saves)
	require.False(t, p.IsDeleted)
	require.True(t, p.UpdatedAt.After(start))
}

func TestMarkDeleted_RepeatedCallsAdvanceDeletedAt(t *testing.T) {
	// Arrange
	stepClock(t)
	store := newMemStore()
	p := &project{Model: portfolio.Model{ID: 7}}
	require.Nil(t, portfolio.MarkDeleted(context.Background(), p, store.save))
	first := p.DeletedAt.Time

	// Act
	err := portfolio.MarkDeleted(context.Background(), p, store.save)

	// Assert
	require.Nil(t, err)
	require.Equal(t, 2, store.saves)
	require.True(t, p.IsDeleted)
	require.True(t, p.DeletedAt.Time.After(first))
	require.Equal(t, p.DeletedAt, store.rows[p.ID].DeletedAt)
}

func TestMarkDeleted_RepeatedCallsRealClock(t *testing.T) {
	// Arrange
	store := newMemStore()
	p := &project{Model: portfolio.Model{ID: 8}}
	require.Nil(t, portfolio.MarkDeleted(context.Background(), p, store.save))
	first := p.DeletedAt.Time

	// Act
	err := portfolio.MarkDeleted(context.Background(), p, store.save)

	// Assert
	require.Nil(t, err)
	require.False(t, p.DeletedAt.Time.Before(first))
}

func TestMarkDeleted_SaveFails(t *testing.T) {
	// Arrange
	start := stepClock(t)
	store := newMemStore()
	p := &project{Model: portfolio.Model{ID: 1, CreatedAt: start, UpdatedAt: start}}
	require.Nil(t, store.save(context.Background(), p))

	storeErr := errors.New("connection reset by peer")
	store.err = storeErr

	// Act
	err := portfolio.MarkDeleted(context.Background(), p, store.save)

	// Assert
	require.Equal(t, storeErr, err)

	// NOTE: the record in memory moved on, the stored one did not
	require.True(t, p.IsDeleted)
	require.True(t, p.DeletedAt.Valid)
	require.False(t, store.rows[p.ID].IsDeleted)
	require.False(t, store.rows[p.ID].DeletedAt.Valid)
}

func TestMarkUndeleted_SaveFails(t *testing.T) {
	// Arrange
	stepClock(t)
	store := newMemStore()
	p := &project{Model: portfolio.Model{ID: 1}}
	require.Nil(t, portfolio.MarkDeleted(context.Background(), p, store.save))

	storeErr := fmt.Errorf("%w: unique constraint", portfolio.ErrExists)
	store.err = storeErr

	// Act
	err := portfolio.MarkUndeleted(context.Background(), p, store.save)

	// Assert
	require.Equal(t, storeErr, err)
	require.False(t, p.IsDeleted)
	require.True(t, store.rows[p.ID].IsDeleted)
}

func TestSoftDelete_RoundTrip(t *testing.T) {
	stepClock(t)
	store := newMemStore()
	p := &project{Model: portfolio.Model{ID: 5}}

	for i := 0; i < 3; i++ {
		require.Nil(t, portfolio.MarkDeleted(context.Background(), p, store.save))
		require.Equal(t, p.IsDeleted, p.DeletedAt.Valid)
		require.Nil(t, portfolio.MarkUndeleted(context.Background(), p, store.save))
		require.Equal(t, p.IsDeleted, p.DeletedAt.Valid)
	}

	require.Equal(t, portfolio.SoftDelete{}, p.SoftDelete)
	require.Equal(t, 6, store.saves)
}

func TestDeletedTimeJSON(t *testing.T) {
	// Arrange
	var dt portfolio.DeletedTime

	// Act
	b, err := dt.MarshalJSON()

	// Assert
	require.Nil(t, err)
	require.Equal(t, "null", string(b))

	// Arrange
	at := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	dt.Time, dt.Valid = at, true

	// Act
	b, err = dt.MarshalJSON()

	// Assert
	require.Nil(t, err)
	require.Equal(t, `"2024-03-01T12:00:00Z"`, string(b))

	// Act
	var back portfolio.DeletedTime
	err = back.UnmarshalJSON(b)

	// Assert
	require.Nil(t, err)
	require.True(t, back.IsDeleted())
	require.True(t, at.Equal(back.Time))

	// Act
	err = back.UnmarshalJSON([]byte("null"))

	// Assert
	require.Nil(t, err)
	require.False(t, back.IsDeleted())
	require.ErrorIs(t, back.UnmarshalJSON([]byte(`"yesterday"`)), portfolio.ErrBadFormat)
}
