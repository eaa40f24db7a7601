package postgres

import (
	"fmt"
	"time"

	"github.com/xy-planning-network/portfolio"
	"gorm.io/gorm"
)

// Migration is used to hold the database key and function for creating the migration.
type Migration struct {
	Executor func(*gorm.DB) error
	Key      string
}

// migration records a Migration that has run.
type migration struct {
	ID    uint   `gorm:"primaryKey"`
	Key   string `gorm:"not null;uniqueIndex"`
	RanAt int64
}

// MigrateUp runs, in order, each migration whose key is not yet recorded in the migrations table.
// Each migration runs in its own transaction alongside recording its key.
//
// MigrateUp stops at the first failing migration, returning its error.
func MigrateUp(db *DB, migrations []Migration) error {
	gdb := db.DB()
	if err := gdb.AutoMigrate(new(migration)); err != nil {
		return fmt.Errorf("%w: failed creating migrations table: %s", portfolio.ErrUnexpected, err)
	}

	var ran []string
	if err := gdb.Model(new(migration)).Pluck("key", &ran).Error; err != nil {
		return fmt.Errorf("%w: failed fetching ran migrations: %s", portfolio.ErrUnexpected, err)
	}

	done := make(map[string]bool, len(ran))
	for _, key := range ran {
		done[key] = true
	}

	for _, m := range migrations {
		if done[m.Key] {
			continue
		}

		err := gdb.Transaction(func(tx *gorm.DB) error {
			if err := m.Executor(tx); err != nil {
				return err
			}

			return tx.Create(&migration{Key: m.Key, RanAt: time.Now().Unix()}).Error
		})
		if err != nil {
			return fmt.Errorf("%w: migration %s failed: %s", portfolio.ErrUnexpected, m.Key, err)
		}

		done[m.Key] = true
	}

	return nil
}
