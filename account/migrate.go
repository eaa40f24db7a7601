package account

import (
	"github.com/xy-planning-network/portfolio/postgres"
	"gorm.io/gorm"
)

// Migrations creates the users table.
var Migrations = []postgres.Migration{
	{
		Key: "account_0001_users",
		Executor: func(tx *gorm.DB) error {
			return tx.AutoMigrate(new(User))
		},
	},
}
