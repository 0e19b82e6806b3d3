package models

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"gorm.io/gen"
	"gorm.io/gorm"
)

// AllModels lists every table owned by this service, parents first.
func AllModels() []interface{} {
	return []interface{}{
		&UserProfile{},
		&Project{},
		&GalleryImage{},
		&ContactMessage{},
	}
}

// Migrate creates or updates every table in AllModels.
func Migrate(db *gorm.DB) error {
	migrateDB := db.Session(&gorm.Session{SkipDefaultTransaction: true, PrepareStmt: false})
	if err := migrateDB.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// GenerateModels migrates the schema, reports column drift and writes typed query
// helpers for every model into outPath.
func GenerateModels(db *gorm.DB, outPath string) error {
	if err := db.Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("database not reachable: %w", err)
	}

	if err := Migrate(db); err != nil {
		return err
	}
	log.Info().Msg("Database migration completed")

	drift, err := ColumnMismatchReport(db)
	if err != nil {
		return err
	}
	LogColumnMismatchReport(drift)

	g := gen.NewGenerator(gen.Config{
		OutPath:           outPath,
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface | gen.WithoutContext,
		FieldNullable:     true,
		FieldCoverable:    true,
		FieldWithIndexTag: true,
		FieldWithTypeTag:  true,
	})
	g.UseDB(db)
	g.ApplyBasic(AllModels()...)
	g.Execute()

	log.Info().Str("outPath", outPath).Msg("Query helper generation complete")
	return nil
}

// ColumnMismatchReport maps each table to the database columns no model field accounts for.
func ColumnMismatchReport(db *gorm.DB) (map[string][]string, error) {
	report := make(map[string][]string)

	for _, model := range AllModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse model %T: %w", model, err)
		}
		table := stmt.Schema.Table

		if !db.Migrator().HasTable(model) {
			continue
		}

		columnTypes, err := db.Migrator().ColumnTypes(model)
		if err != nil {
			return nil, fmt.Errorf("read columns of %s: %w", table, err)
		}

		known := make(map[string]bool, len(stmt.Schema.DBNames))
		for _, name := range stmt.Schema.DBNames {
			known[name] = true
		}

		var extra []string
		for _, column := range columnTypes {
			if !known[column.Name()] {
				extra = append(extra, column.Name())
			}
		}
		sort.Strings(extra)
		report[table] = extra
	}

	return report, nil
}

func LogColumnMismatchReport(report map[string][]string) {
	total := 0
	for table, columns := range report {
		total += len(columns)
		if len(columns) > 0 {
			log.Warn().Str("table", table).Strs("columns", columns).Msg("Columns not accounted for in model")
		}
	}
	log.Info().Int("tables", len(report)).Int("mismatchedColumns", total).Msg("Column mismatch report")
}
