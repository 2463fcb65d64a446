package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/wms-platform/carrier-selection/internal/config"
	"github.com/wms-platform/carrier-selection/internal/infrastructure/sqlstore"
	"github.com/wms-platform/carrier-selection/pkg/logging"
)

// Applies the schema migrations embedded in sqlstore.
//
//	migrate [-config path] up|status|down

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	logger := logging.New(logging.DefaultConfig("carrier-selection-migrate"))

	if err := run(*configPath, command, logger); err != nil {
		logger.WithError(err).Error("Migration failed", "command", command)
		os.Exit(1)
	}
	logger.Info("Migration finished", "command", command)
}

func run(configPath, command string, logger *logging.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := sqlstore.Open(context.Background(), cfg.Database())
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("Connected to database", "driver", cfg.Database().Driver, "env", cfg.Env)

	switch command {
	case "up":
		return sqlstore.Migrate(db)
	case "status":
		return sqlstore.MigrationStatus(db)
	case "down":
		return sqlstore.Rollback(db)
	default:
		return fmt.Errorf("unknown command %q: use up, status or down", command)
	}
}
