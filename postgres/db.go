package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"reflect"

	"github.com/xy-planning-network/portfolio"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

var (
	errNilArg = errors.New("nil arg")

	// safeGORMSession forks a *gorm.DB so later chained calls cannot mutate the original statement.
	safeGORMSession = &gorm.Session{}
)

// A Scope is a reusable fragment of a query.
type Scope func(*DB) *DB

// DB wraps a *gorm.DB, translating failures into the portfolio sentinel errors.
type DB struct {
	// Some *gorm.DB methods mutate the statement they are called on.
	// Methods calling *gorm.DB.getInstance return a fresh pointer and are safe to chain;
	// otherwise, fork the statement with *gorm.DB.Session first.
	db *gorm.DB
}

// NewDB constructs a *DB from a *gorm.DB.
func NewDB(db *gorm.DB) *DB { return &DB{db: db} }

// DB exposes the underlying *gorm.DB backing DB.
//
// NB: use in exceptional circumstances only.
func (db *DB) DB() *gorm.DB { return db.db }

// Debug prints the current query to the logger.
func (db *DB) Debug() *DB { return &DB{db.db.Debug()} }

// **************************************************************************
// FINISHER METHODS
//
// Finishers execute the current query and cannot be chained.
// Each returns an error carried from earlier in the chain before touching the database.
// **************************************************************************

// Count returns the number of records matching the current query or an error.
func (db *DB) Count() (int64, error) {
	if db.db.Error != nil {
		return 0, db.db.Error
	}

	var count int64
	if err := db.db.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("%w: %s", portfolio.ErrUnexpected, err)
	}

	return count, nil
}

// Create inserts value into the database, filling in generated values such as ID and CreatedAt.
// value is almost always a pointer to a struct backed by a table.
//
// When the table is set with Model or Table, value may be an Updates instead.
//
// If value is not a pointer, ErrUnaddressable returns.
// If value violates a foreign key, ErrNotValid returns.
// If value violates a unique constraint, ErrExists returns.
// If value is not backed by a table, ErrMissingData returns.
func (db *DB) Create(value any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %T must be a non-nil pointer or slice", portfolio.ErrUnaddressable, value)
		}
	}()

	if db.db.Error != nil {
		return db.db.Error
	}

	if value == nil || reflect.TypeOf(value).Kind() != reflect.Ptr {
		if _, ok := value.(Updates); !ok {
			return fmt.Errorf("%w: %T must be a non-nil pointer", portfolio.ErrUnaddressable, value)
		}
	}

	if v, ok := value.(Updates); ok {
		if err = v.valid(); err != nil {
			return err
		}

		value = map[string]any(v)
	}

	err = db.db.Session(&gorm.Session{FullSaveAssociations: false}).Create(value).Error
	switch {
	case err == nil:
		return nil

	case errors.Is(err, schema.ErrUnsupportedDataType), errors.Is(err, gorm.ErrInvalidData):
		return fmt.Errorf("%w: %T is not backed by a table", portfolio.ErrMissingData, value)

	default:
		return translate(err, fmt.Sprintf("failed creating %T", value))
	}
}

// Delete physically removes the records for value.
//
// Records embedding portfolio.SoftDelete are soft deleted with portfolio.MarkDeleted instead;
// Delete is reserved for purging them.
func (db *DB) Delete(value any) error {
	if db.db.Error != nil {
		return db.db.Error
	}

	res := db.db.Delete(value)
	if errors.Is(res.Error, schema.ErrUnsupportedDataType) {
		return fmt.Errorf("%w: cannot parse table name from %T", portfolio.ErrMissingData, value)
	}

	if errors.Is(res.Error, gorm.ErrMissingWhereClause) {
		return fmt.Errorf("%w: refusing to delete every %T", portfolio.ErrMissingData, value)
	}

	if res.Error != nil {
		return translate(res.Error, fmt.Sprintf("failed deleting %T", value))
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %T", portfolio.ErrNotFound, value)
	}

	return nil
}

// Exec executes SQL query sql, passing values to it.
//
// If the query executed does not affect any records, Exec returns ErrNotFound.
// DDL statements never affect records, so callers running them ought to ignore that error.
func (db *DB) Exec(sql string, values ...any) error {
	if db.db.Error != nil {
		return db.db.Error
	}

	values, err := unwrap(values...)
	if err != nil && !errors.Is(err, errNilArg) {
		return err
	}

	res := db.db.Exec(sql, values...)
	if res.Error != nil {
		return translate(res.Error, "exec failed")
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: exec failed to affect any rows", portfolio.ErrNotFound)
	}

	return nil
}

// Exists asserts whether any record matches the current query.
func (db *DB) Exists() (bool, error) {
	if db.db.Error != nil {
		return false, db.db.Error
	}

	var exists bool
	// NOTE(dlk): the outer query needs its own statement;
	// sharing the current one leaves the sub-query unrendered, as in "SELECT EXISTS()"
	err := db.db.Session(&gorm.Session{NewDB: true}).
		Raw("SELECT EXISTS(?)", db.db.Session(safeGORMSession)).
		Scan(&exists).Error
	if err != nil {
		return false, fmt.Errorf("%w: %s", portfolio.ErrUnexpected, err)
	}

	return exists, nil
}

// Find retrieves all records matching the current query and stores them in dest.
//
// If dest cannot hold the table queried, ErrNotValid returns.
// If no matches are found, Find returns ErrNotFound.
func (db *DB) Find(dest any) (err error) {
	badDest := fmt.Errorf("%w: %T cannot be scanned into", portfolio.ErrNotValid, dest)
	defer func() {
		if r := recover(); r != nil {
			err = badDest
		}
	}()

	if db.db.Error != nil {
		return db.db.Error
	}

	res := db.db.Find(dest)
	if res.Error != nil && errSQLScan.MatchString(res.Error.Error()) {
		return badDest
	}

	if res.Error != nil {
		return translate(res.Error, "find failed")
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("%w", portfolio.ErrNotFound)
	}

	return nil
}

// First retrieves the first record matching the query, ordered by primary key, and stores it in dest.
//
// If no matches are found, First returns ErrNotFound.
func (db *DB) First(dest any) error {
	if db.db.Error != nil {
		return db.db.Error
	}

	err := db.db.First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %T", portfolio.ErrNotFound, dest)
	}

	if err != nil {
		return translate(err, "first failed")
	}

	return nil
}

// Paged turns the results of the current query into PagedData.
// The table must be set with Model; page and perPage below 1 are raised to 1.
func (db *DB) Paged(page, perPage int64) (pd PagedData, err error) {
	defer func() {
		// NOTE(dlk): reflect can panic
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: Paged panicked: %s", portfolio.ErrUnexpected, r)
			pd = PagedData{}
		}
	}()

	if db.db.Error != nil {
		return PagedData{}, db.db.Error
	}

	model := db.db.Statement.Model
	if model == nil {
		return PagedData{}, fmt.Errorf("%w: must use Model with Paged", portfolio.ErrUnaddressable)
	}

	reflectType := reflect.TypeOf(model).Elem()
	if reflectType.Kind() != reflect.Slice {
		model = reflect.New(reflect.SliceOf(reflectType)).Interface()
	}

	pd.Items = model
	pd.Page = max(1, page)
	pd.PerPage = max(1, perPage)

	var totalRecords int64
	if err = db.db.Session(safeGORMSession).Count(&totalRecords).Error; err != nil {
		return PagedData{}, fmt.Errorf("%w: %s", portfolio.ErrUnexpected, err)
	}

	offset := int((pd.Page - 1) * pd.PerPage)
	if err = db.db.Limit(int(pd.PerPage)).Offset(offset).Find(pd.Items).Error; err != nil {
		return PagedData{}, fmt.Errorf("%w: %s", portfolio.ErrUnexpected, err)
	}

	// NOTE(dlk): big.Float rounds toward zero, so bump inexact results to the ceiling
	totalPages := new(big.Float).Quo(
		new(big.Float).SetInt64(totalRecords),
		new(big.Float).SetInt64(pd.PerPage),
	)

	var acc big.Accuracy
	pd.TotalPages, acc = totalPages.Int64()
	if acc == big.Below {
		pd.TotalPages++
	}

	pd.TotalItems = totalRecords

	return pd, nil
}

// Raw executes sql, passing values to it, and scans the results into dest.
func (db *DB) Raw(dest any, sql string, values ...any) error {
	if db.db.Error != nil {
		return db.db.Error
	}

	values, err := unwrap(values...)
	if err != nil && !errors.Is(err, errNilArg) {
		return err
	}

	err = db.db.Raw(sql, values...).Scan(dest).Error
	if err != nil && errSQLUnaddressable.MatchString(err.Error()) {
		return fmt.Errorf("%w: %s", portfolio.ErrUnaddressable, err)
	}

	if err != nil {
		return translate(err, "failed scanning results")
	}

	return nil
}

// Save writes every column of value to its existing row, zero values included,
// exactly as held in memory.
//
// Unlike Update, Save does not stamp updated_at itself:
// value's UpdatedAt is written as set by the caller.
//
// value must be a pointer to a record that was already created.
// If value has no primary key, ErrMissingData returns.
// If no row has value's primary key, ErrNotFound returns.
func (db *DB) Save(value any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %T must be a non-nil pointer", portfolio.ErrUnaddressable, value)
		}
	}()

	if db.db.Error != nil {
		return db.db.Error
	}

	if value == nil || reflect.TypeOf(value).Kind() != reflect.Ptr {
		return fmt.Errorf("%w: %T must be a non-nil pointer", portfolio.ErrUnaddressable, value)
	}

	res := db.db.Session(&gorm.Session{SkipHooks: true}).Select("*").Omit(clause.Associations).Updates(value)
	switch {
	case errors.Is(res.Error, gorm.ErrMissingWhereClause):
		return fmt.Errorf("%w: %T has no primary key", portfolio.ErrMissingData, value)

	case errors.Is(res.Error, schema.ErrUnsupportedDataType):
		return fmt.Errorf("%w: %T is not backed by a table", portfolio.ErrMissingData, value)

	case res.Error != nil:
		return translate(res.Error, fmt.Sprintf("failed saving %T", value))

	case res.RowsAffected == 0:
		return fmt.Errorf("%w: %T", portfolio.ErrNotFound, value)

	default:
		return nil
	}
}

// SaveFunc adapts db.Save to a portfolio.Saver,
// persisting records passed to portfolio.MarkDeleted and portfolio.MarkUndeleted.
func SaveFunc[T any](db *DB) portfolio.Saver[T] {
	return func(ctx context.Context, record T) error {
		return db.WithContext(ctx).Save(record)
	}
}

// Update replaces existing data on all records matching the query with values,
// stamping updated_at when the table has one.
//
// If no records are updated, ErrNotFound returns.
func (db *DB) Update(values Updates) error {
	if db.db.Error != nil {
		return db.db.Error
	}

	if err := values.valid(); err != nil {
		return err
	}

	res := db.db.Updates(map[string]any(values))
	switch {
	case res.Error != nil:
		return translate(res.Error, "update failed")

	case res.RowsAffected == 0:
		return fmt.Errorf("%w", portfolio.ErrNotFound)

	default:
		return nil
	}
}

// **************************************************************************
// QUERY BUILDING METHODS
//
// Builders add clauses to the current query until a finisher method runs it.
// An invalid argument is recorded on the query and surfaces from the finisher.
// **************************************************************************

// Distinct adds a DISTINCT clause to the current query.
// An empty column is the equivalent of all columns, i.e.: *.
func (db *DB) Distinct(column string) *DB {
	if column == "" {
		column = "*"
	}

	return &DB{db.db.Distinct(column)}
}

// Limit applies a LIMIT clause to the current query.
//
// GORM drops negative limits; Limit rejects them instead.
func (db *DB) Limit(limit int) *DB {
	if limit < 0 {
		return db.withError(fmt.Errorf("%w: limit must not be negative", portfolio.ErrNotValid))
	}

	return &DB{db: db.db.Limit(limit)}
}

// Model declares the table used for the query.
//
// The table name is the snake cased plural of the type of model, e.g., User -> users,
// unless model implements: func TableName() string
//
// Calling Model multiple times or in conjunction with Table is undefined behavior.
func (db *DB) Model(model any) *DB { return &DB{db: db.db.Model(model)} }

// Offset applies an OFFSET clause to the current query.
//
// GORM drops negative offsets; Offset rejects them instead.
func (db *DB) Offset(offset int) *DB {
	if offset < 0 {
		return db.withError(fmt.Errorf("%w: offset must not be negative", portfolio.ErrNotValid))
	}

	return &DB{db: db.db.Offset(offset)}
}

// Or applies an OR clause to the current query.
// Or supports one or none args.
func (db *DB) Or(query any, args ...any) *DB {
	q, args, err := prepareCondition(query, args)
	if err != nil {
		return db.withError(err)
	}

	return &DB{db: db.db.Or(q, args...)}
}

// Order applies an ORDER BY clause to the current query.
func (db *DB) Order(order string) *DB { return &DB{db: db.db.Order(order)} }

// Preload fetches associations of the model by field name, e.g., Account, or nested: User.Account.
//
// Scopes filter the preloaded records:
//
//	adminScope := func(dbx *DB) *DB { return dbx.Where("is_staff = ?", true) }
//	db.Preload("Users", adminScope).Where("id = ?", id).First(&org)
func (db *DB) Preload(association string, scopes ...Scope) *DB {
	var resolved []any
	for _, scope := range scopes {
		// NOTE(dlk): the scope must apply to the preload's query, not the current one
		clean := NewDB(db.db.Session(&gorm.Session{NewDB: true}))
		resolved = append(resolved, scope(clean).DB())
	}

	return &DB{db: db.db.Preload(association, resolved...)}
}

// Scope applies the scope to the existing query.
func (db *DB) Scope(scope Scope) *DB {
	return &DB{db: db.db.Scopes(func(dbx *gorm.DB) *gorm.DB {
		return scope(NewDB(dbx)).DB()
	})}
}

// Select applies a SELECT statement to the current query.
func (db *DB) Select(columns ...string) *DB { return &DB{db: db.db.Select(columns)} }

// Table defines which database table to query for the current query.
//
// Calling Table multiple times or in conjunction with Model is undefined behavior.
func (db *DB) Table(name string) *DB { return &DB{db: db.db.Table(name)} }

// Where applies the query fragment or subquery to the current query
// as a WHERE or AND clause.
//
// Where supports one or none args.
// If more than one arg is passed, finisher methods return ErrNotValid.
func (db *DB) Where(query any, args ...any) *DB {
	q, args, err := prepareCondition(query, args)
	if err != nil {
		return db.withError(err)
	}

	return &DB{db.db.Where(q, args...)}
}

// WithContext runs the query under ctx, cancelling it along with ctx.
func (db *DB) WithContext(ctx context.Context) *DB { return &DB{db: db.db.WithContext(ctx)} }

// **************************************************************************
// TRANSACTION METHODS
// **************************************************************************

// Begin initializes a database transaction.
func (db *DB) Begin(opts ...*sql.TxOptions) *DB {
	return &DB{db: db.db.Begin(opts...)}
}

// Commit completes the current transaction.
func (db *DB) Commit() error {
	if db.db.Error != nil {
		return db.db.Error
	}

	if err := db.db.Commit().Error; err != nil {
		return fmt.Errorf("%w: failed committing tx: %s", portfolio.ErrUnexpected, err)
	}

	return nil
}

// Rollback reverts the current transaction.
// If no transaction is open, Rollback returns an error.
func (db *DB) Rollback() error {
	if err := db.db.Rollback().Error; err != nil {
		return fmt.Errorf("%w: failed rolling back tx: %s", portfolio.ErrUnexpected, err)
	}

	return nil
}

// Transaction runs fn in a transaction, committing when fn returns nil and rolling back otherwise.
// fn's error returns unchanged.
func (db *DB) Transaction(fn func(tx *DB) error) error {
	if db.db.Error != nil {
		return db.db.Error
	}

	return db.db.Transaction(func(tx *gorm.DB) error { return fn(NewDB(tx)) })
}

// **************************************************************************
// HELPERS
// **************************************************************************

// withError records err on a fork of the current query.
func (db *DB) withError(err error) *DB {
	gdb := db.db.Session(safeGORMSession)
	_ = gdb.AddError(err)
	return &DB{db: gdb}
}

func prepareCondition(query any, args []any) (any, []any, error) {
	if len(args) > 1 {
		return nil, nil, fmt.Errorf("%w: supports one or none args", portfolio.ErrNotValid)
	}

	args, err := unwrap(args...)
	if err != nil && !errors.Is(err, errNilArg) {
		return nil, nil, err
	}

	q, err := unwrap(query)
	if err != nil {
		return nil, nil, err
	}

	return q[0], args, nil
}

// unwrap exposes the *gorm.DB behind any *DB passed as a parameter, e.g., a subquery.
//
// If a *DB parameter is in an error state, that error returns,
// preventing partial queries from running.
// nil parameters are kept, reported with errNilArg.
func unwrap(args ...any) ([]any, error) {
	var err error
	res := make([]any, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case *DB:
			gdb := v.DB()
			if gdb.Error != nil {
				err = errors.Join(err, gdb.Error)
			}
			res[i] = gdb

		case nil:
			res[i] = arg
			err = errors.Join(err, portfolio.ErrNotValid, errNilArg)

		default:
			res[i] = arg
		}
	}

	return res, err
}
