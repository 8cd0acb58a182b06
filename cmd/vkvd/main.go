// Command vkvd runs the versioned KV/row store behind its HTTP
// surface: it loads configuration, opens the substrate and WAL,
// replays recovery, and serves until terminated.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/bobboyms/vkv/pkg/config"
	"github.com/bobboyms/vkv/pkg/httpapi"
	"github.com/bobboyms/vkv/pkg/logging"
	"github.com/bobboyms/vkv/pkg/storage"
)

func main() {
	cfg, err := config.Load("VKV_")
	if err != nil {
		fmt.Fprintln(os.Stderr, "vkvd: load config:", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log := logging.Get()

	svc, err := storage.Open(cfg.DataDir, cfg.WalPath)
	if err != nil {
		log.Error("open storage", "err", err)
		os.Exit(1)
	}
	defer svc.Close()

	log.Info("storage ready", "data_dir", cfg.DataDir, "wal_path", cfg.WalPath)

	router := httpapi.NewRouter(svc)
	log.Info("listening", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
