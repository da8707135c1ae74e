// cmd/migrate/main.go
package main

import (
	"errors"
	"flag"

	"github.com/golang-migrate/migrate/v4"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/agrimarket-backend/internal/config"
	"github.com/javajoker/agrimarket-backend/internal/database"
)

func main() {
	flag.Parse()
	args := flag.Args()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal("Failed to load configuration: ", err)
	}
	cfg.ConfigureLogger()

	if len(args) < 1 {
		logrus.Fatal("usage: migrate <up|down|version>")
	}

	m, err := database.NewMigrator(cfg.Database.URL())
	if err != nil {
		logrus.Fatal(err)
	}
	defer func() { _, _ = m.Close() }()

	switch command := args[0]; command {
	case "up":
		err = m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			logrus.Info("No pending migrations")
			return
		}
		if err != nil {
			logrus.Fatal("Migration up failed: ", err)
		}
		logrus.Info("Migrations applied successfully")

	case "down":
		err = m.Steps(-1)
		if errors.Is(err, migrate.ErrNoChange) {
			logrus.Info("No migrations to roll back")
			return
		}
		if err != nil {
			logrus.Fatal("Migration down failed: ", err)
		}
		logrus.Info("Migration rolled back successfully")

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logrus.Info("No migrations applied yet")
			return
		}
		if err != nil {
			logrus.Fatal("Failed to get version: ", err)
		}
		logrus.WithFields(logrus.Fields{
			"version": version,
			"dirty":   dirty,
		}).Info("Current migration version")

	default:
		logrus.WithField("command", command).Fatal("Unknown command")
	}
}
