package postgres_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/postgres"
	"gorm.io/gorm"
)

func (suite *DBTestSuite) TestCount() {
	// Arrange + Act
	_, err := suite.errored().Count()

	// Assert
	suite.Require().ErrorIs(err, testErr)

	// Arrange
	suite.insertProjects("alpha", "beta", "gamma")

	// Act
	count, err := suite.db.Model(new(Project)).Count()

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal(int64(3), count)

	// Act
	count, err = suite.db.Model(new(Project)).Where("title <> ?", "beta").Count()

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal(int64(2), count)
}

func (suite *DBTestSuite) TestCreate() {
	// Arrange + Act
	err := suite.errored().Create(nil)

	// Assert
	suite.Require().ErrorIs(err, testErr)

	// Act
	err = suite.db.Create(Project{Title: "not a pointer"})

	// Assert
	suite.Require().ErrorIs(err, portfolio.ErrUnaddressable)

	// Act
	err = suite.db.Create(nil)

	// Assert
	suite.Require().ErrorIs(err, portfolio.ErrUnaddressable)

	// Arrange
	s := "just a string"

	// Act
	err = suite.db.Create(&s)

	// Assert
	suite.Require().ErrorIs(err, portfolio.ErrMissingData)

	// Arrange
	p := Project{Title: "alpha"}

	// Act
	err = suite.db.Create(&p)

	// Assert
	suite.Require().Nil(err)
	suite.Require().NotZero(p.ID)
	suite.Require().True(p.Exists())
	suite.Require().True(p.Active())

	// Act
	err = suite.db.Create(&Project{Title: "alpha"})

	// Assert
	suite.Require().ErrorIs(err, portfolio.ErrExists)

	// Act
	err = suite.db.Create(&Task{ProjectID: p.ID + 100, Name: "orphan"})

	// Assert
	suite.Require().ErrorIs(err, portfolio.ErrNotValid)

	// Act
	err = suite.db.Model(new(Project)).Create(postgres.Updates{"title": "a-map"})

	// Assert
	suite.Require().Nil(err)

	// Act
	err = suite.db.Model(new(Project)).Create(postgres.Updates{})

	// Assert
	suite.Require().ErrorIs(err, portfolio.ErrMissingData)
}

func (suite *DBTestSuite) TestDelete() {
	// Arrange
	projects := suite.insertProjects("alpha", "beta")

	// Act
	err := suite.db.Delete(&projects[0])

	// Assert
	suite.Require().Nil(err)

	var count int64
	count, err = suite.db.Model(new(Project)).Count()
	suite.Require().Nil(err)
	suite.Require().Equal(int64(1), count)

	// Act
	err = suite.db.Delete(&projects[0])

	// Assert
	suite.Require().ErrorIs(err, portfolio.ErrNotFound)

	// Act
	err = suite.db.Delete(new(Project))

	// Assert
	suite.Require().ErrorIs(err, portfolio.ErrMissingData)
}

func (suite *DBTestSuite) TestExec() {
	// Arrange
	suite.insertProjects("alpha")

	// Act
	err := suite.db.Exec("UPDATE projects SET notes = ? WHERE title = ?", "exec'd", "alpha")

	// Assert
	suite.Require().Nil(err)

	// Act
	err = suite.db.Exec("UPDATE projects SET notes = ? WHERE title = ?", "exec'd", "omega")

	// Assert
	suite.Require().ErrorIs(err, portfolio.ErrNotFound)

	// Act
	err = suite.db.Exec("UPDATE projects SET missing = 1")

	// Assert
	suite.Require().ErrorIs(err, portfolio.ErrNotValid)
}

func (suite *DBTestSuite) TestExists() {
	// Arrange
	suite.insertProjects("alpha")

	// Act
	exists, err := suite.db.Model(new(Project)).Where("title = ?", "alpha").Exists()

	// Assert
	suite.Require().Nil(err)
	suite.Require().True(exists)

	// Act
	exists, err = suite.db.Model(new(Project)).Where("title = ?", "omega").Exists()

	// Assert
	suite.Require().Nil(err)
	suite.Require().False(exists)
}

func (suite *DBTestSuite) TestFind() {
	// Arrange
	suite.insertProjects("alpha", "apex", "beta")
	var actual []Project

	// Act
	err := suite.db.Where("title LIKE ?", "a%").Order("title").Find(&actual)

	// Assert
	suite.Require().Nil(err)
	suite.Require().Len(actual, 2)
	suite.Require().Equal("alpha", actual[0].Title)
	suite.Require().Equal("apex", actual[1].Title)

	// Arrange
	actual = nil

	// Act
	err = suite.db.Where("title = ?", "omega").Find(&actual)

	// Assert
	suite.Require().ErrorIs(err, portfolio.ErrNotFound)

	// Act
	err = suite.db.Where("title = ?", "alpha", "apex").Find(&actual)

	// Assert
	suite.Require().ErrorIs(err, portfolio.ErrNotValid)

	// Act
	err = suite.db.Limit(-1).Find(&actual)

	// Assert
	suite.Require().ErrorIs(err, portfolio.ErrNotValid)

	// Act
	err = suite.db.Offset(-1).Find(&actual)

	// Assert
	suite.Require().ErrorIs(err, portfolio.ErrNotValid)
}

func (suite *DBTestSuite) TestFirst() {
	// Arrange
	projects := suite.insertProjects("alpha", "beta")
	var actual Project

	// Act
	err := suite.db.Where("title = ?", "beta").First(&actual)

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal(projects[1].ID, actual.ID)

	// Act
	err = suite.db.Where("title = ?", "omega").First(new(Project))

	// Assert
	suite.Require().ErrorIs(err, portfolio.ErrNotFound)

	// Act
	err = suite.db.Where("missing = ?", 1).First(new(Project))

	// Assert
	suite.Require().ErrorIs(err, portfolio.ErrNotValid)
}

func (suite *DBTestSuite) TestOr() {
	// Arrange
	suite.insertProjects("alpha", "beta", "gamma")
	var actual []Project

	// Act
	err := suite.db.Where("title = ?", "alpha").Or("title = ?", "gamma").Find(&actual)

	// Assert
	suite.Require().Nil(err)
	suite.Require().Len(actual, 2)
}

func (suite *DBTestSuite) TestPaged() {
	// Arrange + Act
	_, err := suite.errored().Paged(1, 1)

	// Assert
	suite.Require().ErrorIs(err, testErr)

	// Act
	_, err = suite.db.Paged(1, 1)

	// Assert
	suite.Require().ErrorIs(err, portfolio.ErrUnaddressable)

	// Act
	actual, err := suite.db.Model(new(Project)).Paged(0, 0)

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal(int64(1), actual.Page)
	suite.Require().Equal(int64(1), actual.PerPage)
	suite.Require().Zero(actual.TotalItems)
	suite.Require().Zero(actual.TotalPages)

	// Arrange
	projects := suite.insertProjects("a", "b", "c", "d", "e")

	// Act
	actual, err = suite.db.Model(new(Project)).Order("id").Paged(2, 2)

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal(int64(2), actual.Page)
	suite.Require().Equal(int64(2), actual.PerPage)
	suite.Require().Equal(int64(5), actual.TotalItems)
	suite.Require().Equal(int64(3), actual.TotalPages)

	items, ok := actual.Items.(*[]Project)
	suite.Require().True(ok)
	suite.Require().Len(*items, 2)
	suite.Require().Equal(projects[2].ID, (*items)[0].ID)
	suite.Require().Equal(projects[3].ID, (*items)[1].ID)
}

func (suite *DBTestSuite) TestPreload() {
	// Arrange
	projects := suite.insertProjects("alpha")
	suite.Require().Nil(suite.db.Create(&Task{ProjectID: projects[0].ID, Name: "write docs"}))
	var actual Task

	// Act
	err := suite.db.Preload("Project").First(&actual)

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal("alpha", actual.Project.Title)
}

func (suite *DBTestSuite) TestRaw() {
	// Arrange
	suite.insertProjects("beta", "alpha")
	var titles []string

	// Act
	err := suite.db.Raw(&titles, "SELECT title FROM projects ORDER BY title")

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal([]string{"alpha", "beta"}, titles)
}

func (suite *DBTestSuite) TestSave() {
	// Arrange
	projects := suite.insertProjects("alpha", "beta")
	p := projects[0]
	at := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	p.Title = "renamed"
	p.Notes = ""
	p.UpdatedAt = at

	// Act
	err := suite.db.Save(&p)

	// Assert
	suite.Require().Nil(err)

	var actual Project
	suite.Require().Nil(suite.db.Where("id = ?", p.ID).First(&actual))
	suite.Require().Equal("renamed", actual.Title)
	suite.Require().True(at.Equal(actual.UpdatedAt))
	suite.Require().True(projects[0].CreatedAt.Equal(actual.CreatedAt))

	// Arrange
	p.Title = "beta"

	// Act
	err = suite.db.Save(&p)

	// Assert
	suite.Require().ErrorIs(err, portfolio.ErrExists)

	// Act
	err = suite.db.Save(p)

	// Assert
	suite.Require().ErrorIs(err, portfolio.ErrUnaddressable)

	// Act
	err = suite.db.Save(&Project{Title: "never created"})

	// Assert
	suite.Require().ErrorIs(err, portfolio.ErrMissingData)

	// Arrange
	gone := projects[1]
	suite.Require().Nil(suite.db.Delete(&gone))

	// Act
	err = suite.db.Save(&gone)

	// Assert
	suite.Require().ErrorIs(err, portfolio.ErrNotFound)
}

func (suite *DBTestSuite) TestSoftDelete() {
	// Arrange
	ctx := context.Background()
	projects := suite.insertProjects("alpha", "beta")
	p := &projects[0]
	save := postgres.SaveFunc[*Project](suite.db)

	// Act
	err := portfolio.MarkDeleted(ctx, p, save)

	// Assert
	suite.Require().Nil(err)

	var actual Project
	suite.Require().Nil(suite.db.Where("id = ?", p.ID).First(&actual))
	suite.Require().True(actual.IsDeleted)
	suite.Require().True(actual.DeletedAt.Valid)
	suite.Require().True(p.DeletedAt.Time.Equal(actual.DeletedAt.Time))
	suite.Require().True(actual.DeletedAt.Time.Equal(actual.UpdatedAt))
	suite.Require().Equal("alpha", actual.Title)

	active, err := suite.db.Model(new(Project)).Scope(postgres.Active()).Count()
	suite.Require().Nil(err)
	suite.Require().Equal(int64(1), active)

	var deleted []Project
	suite.Require().Nil(suite.db.Scope(postgres.OnlyDeleted()).Find(&deleted))
	suite.Require().Len(deleted, 1)
	suite.Require().Equal(p.ID, deleted[0].ID)

	// Act
	err = portfolio.MarkUndeleted(ctx, p, save)

	// Assert
	suite.Require().Nil(err)

	actual = Project{}
	suite.Require().Nil(suite.db.Where("id = ?", p.ID).First(&actual))
	suite.Require().False(actual.IsDeleted)
	suite.Require().False(actual.DeletedAt.Valid)
	suite.Require().True(p.UpdatedAt.Equal(actual.UpdatedAt))
	suite.Require().ErrorIs(suite.db.Scope(postgres.OnlyDeleted()).Find(&deleted), portfolio.ErrNotFound)
}

func (suite *DBTestSuite) TestSoftDelete_SaveFails() {
	// Arrange
	ctx := context.Background()
	projects := suite.insertProjects("alpha", "beta")
	p := &projects[0]
	p.Title = "beta"

	// Act
	err := portfolio.MarkDeleted(ctx, p, postgres.SaveFunc[*Project](suite.db))

	// Assert
	suite.Require().ErrorIs(err, portfolio.ErrExists)
	suite.Require().True(p.IsDeleted)

	var actual Project
	suite.Require().Nil(suite.db.Where("id = ?", p.ID).First(&actual))
	suite.Require().False(actual.IsDeleted)
	suite.Require().Equal("alpha", actual.Title)

	// Arrange
	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	// Act
	err = portfolio.MarkUndeleted(cancelled, p, postgres.SaveFunc[*Project](suite.db))

	// Assert
	suite.Require().NotNil(err)
}

func (suite *DBTestSuite) TestTransaction() {
	// Arrange
	suite.insertProjects("alpha")

	// Act
	err := suite.db.Transaction(func(tx *postgres.DB) error {
		suite.Require().Nil(tx.Create(&Project{Title: "beta"}))
		return testErr
	})

	// Assert
	suite.Require().ErrorIs(err, testErr)

	count, err := suite.db.Model(new(Project)).Count()
	suite.Require().Nil(err)
	suite.Require().Equal(int64(1), count)

	// Arrange
	tx := suite.db.Begin()
	suite.Require().Nil(tx.Create(&Project{Title: "gamma"}))

	// Act
	err = tx.Commit()

	// Assert
	suite.Require().Nil(err)

	count, err = suite.db.Model(new(Project)).Count()
	suite.Require().Nil(err)
	suite.Require().Equal(int64(2), count)
}

func (suite *DBTestSuite) TestUpdate() {
	// Arrange
	suite.insertProjects("alpha")

	// Act
	err := suite.db.Model(new(Project)).Where("title = ?", "alpha").Update(postgres.Updates{"notes": "updated"})

	// Assert
	suite.Require().Nil(err)

	var actual Project
	suite.Require().Nil(suite.db.Where("title = ?", "alpha").First(&actual))
	suite.Require().Equal("updated", actual.Notes)

	// Act
	err = suite.db.Model(new(Project)).Where("title = ?", "omega").Update(postgres.Updates{"notes": "updated"})

	// Assert
	suite.Require().ErrorIs(err, portfolio.ErrNotFound)

	// Act
	err = suite.db.Model(new(Project)).Where("title = ?", "alpha").Update(postgres.Updates{})

	// Assert
	suite.Require().ErrorIs(err, portfolio.ErrMissingData)
}

func (suite *DBTestSuite) TestWipeDB() {
	// Arrange
	projects := suite.insertProjects("alpha")
	suite.Require().Nil(suite.db.Create(&Task{ProjectID: projects[0].ID, Name: "wipe"}))

	// Act
	err := postgres.WipeDB(suite.db)

	// Assert
	suite.Require().Nil(err)

	count, err := suite.db.Model(new(Project)).Count()
	suite.Require().Nil(err)
	suite.Require().Zero(count)
}

func (suite *DBTestSuite) TestMigrateUp() {
	// Arrange
	var runs int
	migrations := []postgres.Migration{
		{Key: "0003_notes_index", Executor: func(tx *gorm.DB) error {
			runs++
			return tx.Exec("CREATE INDEX idx_projects_notes ON projects (notes)").Error
		}},
	}

	// Act
	err := postgres.MigrateUp(suite.db, migrations)

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal(1, runs)

	// Act
	err = postgres.MigrateUp(suite.db, migrations)

	// Assert
	suite.Require().Nil(err)
	suite.Require().Equal(1, runs)

	// Arrange
	broken := []postgres.Migration{
		{Key: "0004_broken", Executor: func(tx *gorm.DB) error { return testErr }},
	}

	// Act
	err = postgres.MigrateUp(suite.db, broken)

	// Assert
	suite.Require().ErrorIs(err, portfolio.ErrUnexpected)

	var keys []string
	suite.Require().Nil(suite.db.Raw(&keys, `SELECT "key" FROM migrations ORDER BY id`))
	suite.Require().Equal([]string{"0001_projects", "0002_tasks", "0003_notes_index"}, keys)
}

func (suite *DBTestSuite) TestStripNils() {
	// Arrange
	updates := postgres.Updates{
		"title":      "kept",
		"notes":      nil,
		"deleted_at": sql.NullTime{},
		"env":        portfolio.Environment("LOCAL"),
		"stage":      portfolio.Staging,
	}

	// Act
	updates.StripNils()

	// Assert
	suite.Require().Equal(postgres.Updates{"title": "kept", "stage": portfolio.Staging}, updates)
}
