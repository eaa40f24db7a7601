package auth

import (
	"github.com/xy-planning-network/portfolio/postgres"
	"gorm.io/gorm"
)

// Migrations creates the tables tracking issued and blacklisted refresh tokens.
var Migrations = []postgres.Migration{
	{
		Key: "auth_0001_outstanding_tokens",
		Executor: func(tx *gorm.DB) error {
			return tx.AutoMigrate(new(OutstandingToken))
		},
	},
	{
		Key: "auth_0002_blacklisted_tokens",
		Executor: func(tx *gorm.DB) error {
			return tx.AutoMigrate(new(BlacklistedToken))
		},
	},
}
