package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/authgate-dev/authgate/internal/config"
	"github.com/authgate-dev/authgate/internal/logger"
	"github.com/authgate-dev/authgate/internal/router"
	"github.com/authgate-dev/authgate/internal/setup"
)

func main() {
	var configFolder string
	flag.StringVar(&configFolder, "config_folder", "config", "path to folder with configs")
	flag.Parse()

	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)

	deps, err := setup.SetupDependencies(cfg)
	if err != nil {
		logger.Log.Error("failed to initialize dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Storage.Cleanup()
	defer deps.Redis.Close()

	r := router.New(deps)

	port := os.Getenv("PORT")
	if port == "" && cfg.Public.Port != 0 {
		port = strconv.Itoa(cfg.Public.Port)
	}
	if port == "" {
		port = "8080"
	}

	logger.Log.Info("server started", "port", port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", port), r); err != nil {
		logger.Log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
