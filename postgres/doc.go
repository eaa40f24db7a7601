/*
Package postgres manages the database connection and wraps GORM in [DB],
whose methods translate database failures into the portfolio sentinel errors.

Records embedding portfolio.SoftDelete persist through [DB.Save], the full-row write
[SaveFunc] hands to portfolio.MarkDeleted and portfolio.MarkUndeleted.
Soft deleted rows stay in their table; filter them with the [Active] and [OnlyDeleted] scopes.

Schema changes are [Migration] values applied once each by [MigrateUp].
*/
package postgres
