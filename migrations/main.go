package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"

	"savorysync/internal/config"
	"savorysync/internal/db"
	"savorysync/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	down := flag.Bool("down", false, "roll back every migration")
	steps := flag.Int("steps", 0, "apply n migrations (negative rolls back)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	conn, err := db.NewPostgresDB(context.Background(), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to postgres")
	}
	defer conn.Close()

	projectRoot, err := getProjectRoot()
	if err != nil {
		log.Fatal().Err(err).Msg("find project root")
	}
	sourceURL := "file://" + filepath.ToSlash(filepath.Join(projectRoot, "migrations", "sql"))

	driver, err := postgres.WithInstance(conn, &postgres.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("init migrate driver")
	}
	m, err := migrate.NewWithDatabaseInstance(sourceURL, cfg.DBName, driver)
	if err != nil {
		log.Fatal().Err(err).Str("source", sourceURL).Msg("open migrations")
	}

	switch {
	case *down:
		err = m.Down()
	case *steps != 0:
		err = m.Steps(*steps)
	default:
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal().Err(err).Msg("migration failed")
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.Fatal().Err(err).Msg("read schema version")
	}
	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("migrations applied")
}

func getProjectRoot() (string, error) {
	// the project root is the first parent holding go.mod
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(wd, "go.mod")); err == nil {
			return wd, nil
		}

		parent := filepath.Dir(wd)
		if parent == wd {
			return "", os.ErrNotExist
		}
		wd = parent
	}
}
