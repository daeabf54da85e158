// Purges expired one-time tokens. Meant to run from cron; the API itself
// never deletes rows, expiry is enforced at read time.
package main

import (
	"flag"
	"os"
	"time"

	"github.com/authgate-dev/authgate/internal/config"
	"github.com/authgate-dev/authgate/internal/logger"
	"github.com/authgate-dev/authgate/internal/storage/pg"
)

func main() {
	var configFolder string
	flag.StringVar(&configFolder, "config_folder", "config", "path to folder with configs")
	flag.Parse()

	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)

	storage, err := pg.New(cfg)
	if err != nil {
		logger.Log.Error("failed to connect to db", "error", err)
		os.Exit(1)
	}
	defer storage.Cleanup()

	deleted, err := storage.DeleteExpiredTokens(time.Now())
	if err != nil {
		logger.Log.Error("failed to purge tokens", "error", err)
		os.Exit(1)
	}
	logger.Log.Info("purged expired tokens", "deleted", deleted)
}
