package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aussiebroadwan/grc/internal/auth/store/drivers/postgres/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// ApplyMigrations runs all pending goose migrations from the embedded FS.
func (s *Store) ApplyMigrations() error {
	if s.dsn == "" {
		return errors.New("postgres: migrations need a dsn")
	}

	db, err := sql.Open("pgx", s.dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.UpContext(context.Background(), db, ".")
}
