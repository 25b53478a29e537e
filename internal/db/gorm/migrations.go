package gorm

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/thebtf/skinshelf/internal/collections"
)

// runMigrations runs the versioned migrations, then brings the record
// tables named by the registry up to date.
func runMigrations(db *gorm.DB, registry *collections.Registry) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// Migration 001 created the record tables; migrateCollections owns them now.

		// Migration 002: anonymous sessions
		{
			ID: "002_anonymous_sessions",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&AnonymousSession{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("anonymous_sessions")
			},
		},
	})
	if err := m.Migrate(); err != nil {
		return err
	}

	return migrateCollections(db, registry)
}

// migrateCollections auto-migrates the record tables on every open.
// Their names come from the registry and may change between runs.
func migrateCollections(db *gorm.DB, registry *collections.Registry) error {
	tables := []struct {
		collection string
		model      any
	}{
		{collections.Products, &ProductRecord{}},
		{collections.Views, &ViewRecord{}},
	}
	for _, t := range tables {
		table := registry.Table(t.collection)
		if err := db.Table(table).AutoMigrate(t.model); err != nil {
			return fmt.Errorf("migrate %s table %q: %w", t.collection, table, err)
		}
		// Index names are global in SQLite, so they carry the table name.
		if err := db.Exec("CREATE INDEX IF NOT EXISTS ? ON ? (?, ?)",
			clause.Table{Name: "idx_" + table + "_user_ts"},
			clause.Table{Name: table},
			clause.Column{Name: "user_id"},
			clause.Column{Name: "timestamp"},
		).Error; err != nil {
			return fmt.Errorf("index %s table %q: %w", t.collection, table, err)
		}
	}
	return nil
}
