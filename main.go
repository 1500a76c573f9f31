package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/serverwatch/fivewatch/internal/api"
	"github.com/serverwatch/fivewatch/internal/cache"
	"github.com/serverwatch/fivewatch/internal/config"
	"github.com/serverwatch/fivewatch/internal/database"
	"github.com/serverwatch/fivewatch/internal/fivem"
	"github.com/serverwatch/fivewatch/internal/logger"
	"github.com/serverwatch/fivewatch/internal/maintenance"
	"github.com/serverwatch/fivewatch/internal/models"
	"github.com/serverwatch/fivewatch/internal/monitoring"
	"github.com/serverwatch/fivewatch/internal/notify"
	"github.com/serverwatch/fivewatch/internal/playerindex"
	"github.com/serverwatch/fivewatch/internal/services"
	"github.com/serverwatch/fivewatch/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.LogLevel)

	if len(cfg.Servers) == 0 {
		log.Fatal().Msg("No servers configured, set SERVERS")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Durable stores
	store := cache.NewStore(cfg.CacheDir)
	index, err := playerindex.Open(cfg.PlayerIndex)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open player index")
	}
	log.Info().Int("players", index.Len()).Msg("Player index loaded")

	eventService := services.NewEventService(db)

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Notification transports
	notifiers := notify.Multi{notify.NewHubNotifier(hub)}
	var discord *notify.Discord
	if cfg.DiscordToken != "" {
		discord, err = notify.NewDiscord(cfg.DiscordToken)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Discord notifier")
		}
		notifiers = append(notifiers, discord)
	} else {
		log.Warn().Msg("DISCORD_BOT_TOKEN not set, chat notifications disabled")
	}

	// Tracked servers are shared mutable state owned by the poller.
	servers := make([]*models.TrackedServer, len(cfg.Servers))
	for i := range cfg.Servers {
		servers[i] = &cfg.Servers[i]
	}

	fetcher := fivem.NewClient(cfg.APIBase, cfg.FetchTimeout)
	poller := monitoring.NewPoller(fetcher, store, index, eventService, notifiers, servers, cfg.RoundInterval, cfg.ServerDelay)

	if discord != nil {
		discord.AttachCommands(poller)
		if err := discord.Open(); err != nil {
			log.Fatal().Err(err).Msg("Failed to open Discord session")
		}
		defer discord.Close()
	}

	go poller.Run()

	// Daily cleanup of the activity log
	janitor := maintenance.NewJanitor(eventService, cfg.EventRetention)
	if err := janitor.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start maintenance schedule")
	}

	// Set up router
	router := api.NewRouter(hub, poller, eventService)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("API server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down...")

	poller.Stop()
	janitor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := index.Save(); err != nil {
		log.Error().Err(err).Msg("Failed to save player index on shutdown")
	}

	log.Info().Msg("Server exiting")
}
