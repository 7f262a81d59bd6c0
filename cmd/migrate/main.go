package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	"chatrelay-go/internal/config"
	"chatrelay-go/internal/migrations"

	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

func main() {
	dsn := flag.String("dsn", "", "PostgreSQL connection string (defaults to storage.postgres_dsn from -config)")
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	action := flag.String("action", "up", "migration action: up, down, or version")
	steps := flag.Int("steps", 1, "steps to roll back when action=down")
	flag.Parse()

	if *dsn == "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.WithError(err).Fatal("load configuration")
		}
		*dsn = cfg.Storage.PostgresDSN
	}
	if *dsn == "" {
		fmt.Fprintln(os.Stderr, "no postgres dsn: pass -dsn or set storage.postgres_dsn")
		os.Exit(2)
	}

	db, err := sql.Open("postgres", *dsn)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer db.Close()

	if err := run(db, *action, *steps); err != nil {
		log.WithError(err).WithField("action", *action).Fatal("migration failed")
	}
}

func run(db *sql.DB, action string, steps int) error {
	switch action {
	case "up":
		if err := migrations.PostgresUp(db); err != nil {
			return err
		}
		log.Info("messages schema is up to date")
	case "down":
		if err := migrations.PostgresDown(db, steps); err != nil {
			return err
		}
		log.WithField("steps", steps).Info("rolled back")
	case "version":
		v, dirty, err := migrations.PostgresVersion(db)
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{"version": v, "dirty": dirty}).Info("current schema version")
	default:
		return fmt.Errorf("unknown action %q (expected up, down, version)", action)
	}
	return nil
}
