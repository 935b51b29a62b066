package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/crmdesk/crmdesk/internal/api"
	"github.com/crmdesk/crmdesk/internal/app"
	"github.com/crmdesk/crmdesk/internal/bus"
	"github.com/crmdesk/crmdesk/internal/logging"
	"github.com/crmdesk/crmdesk/internal/model"
	"github.com/crmdesk/crmdesk/internal/session"
	"github.com/crmdesk/crmdesk/internal/store"
	"github.com/crmdesk/crmdesk/internal/tasks"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "crmdesk: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogPath)

	// If the on-disk cache cannot be opened the app still runs, holding
	// its state in memory for the session.
	var storage store.Storage
	sqlite, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.WithError(err).Warn("main: cache db unavailable, running in memory")
		storage = store.NewMemoryStorage()
	} else {
		storage = sqlite
		defer sqlite.Close()
	}

	client := api.NewClient(cfg.API.BaseURL, time.Duration(cfg.API.TimeoutSec)*time.Second)
	taskStore := store.NewTaskStore(storage, log)
	queue := store.NewNotificationQueue(storage, log)
	sess := session.NewManager(client, queue, log)
	taskSvc := tasks.NewService(client, taskStore, log)
	b := bus.New()

	root := app.New(cfg, client, sess, taskStore, queue, taskSvc, b, log)

	program := tea.NewProgram(root, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "crmdesk failed: %v\n", err)
		os.Exit(1)
	}
}
