package postgres

// Active limits the query to records that are not soft deleted.
func Active() Scope {
	return func(db *DB) *DB { return db.Where("is_deleted = ?", false) }
}

// OnlyDeleted limits the query to soft deleted records.
func OnlyDeleted() Scope {
	return func(db *DB) *DB { return db.Where("is_deleted = ?", true) }
}
