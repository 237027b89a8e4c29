package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/noteduco342/OMMessenger-sync/internal/api"
	"github.com/noteduco342/OMMessenger-sync/internal/cache"
	"github.com/noteduco342/OMMessenger-sync/internal/engine"
	"github.com/noteduco342/OMMessenger-sync/internal/history"
	"github.com/noteduco342/OMMessenger-sync/internal/models"
	"github.com/noteduco342/OMMessenger-sync/internal/repository"
	"github.com/noteduco342/OMMessenger-sync/internal/session"
	"github.com/noteduco342/OMMessenger-sync/internal/storage"
	"github.com/noteduco342/OMMessenger-sync/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	token := os.Getenv("AUTH_TOKEN")
	if token == "" {
		log.Fatal("AUTH_TOKEN is required")
	}

	sess, err := session.FromToken(token)
	if err != nil {
		log.Fatal("Failed to read AUTH_TOKEN: ", err)
	}
	selfID := sess.UserID
	if idStr := os.Getenv("USER_ID"); idStr != "" {
		if parsed, err := strconv.ParseUint(idStr, 10, 32); err == nil {
			selfID = uint(parsed)
		}
	}
	if sess.Expired() {
		log.Fatal("AUTH_TOKEN has expired, obtain a fresh token and restart")
	}
	if sess.ExpiresWithin(24 * time.Hour) {
		log.Printf("WARNING: AUTH_TOKEN expires at %s", sess.ExpiresAt.Format(time.RFC3339))
	}
	log.Printf("Syncing as user %d (%s)", selfID, sess.Email)

	upstreamURL := os.Getenv("UPSTREAM_URL")
	if upstreamURL == "" {
		upstreamURL = "http://localhost:8080/api"
	}
	upstreamWS := os.Getenv("UPSTREAM_WS_URL")
	if upstreamWS == "" {
		upstreamWS = "ws://localhost:8080/ws"
	}

	// Initialize local database
	dbPath := os.Getenv("SYNC_DB_PATH")
	if dbPath == "" {
		dbPath = "omsync.db"
	}
	db, err := repository.InitDB(dbPath)
	if err != nil {
		log.Fatal("Failed to open local database: ", err)
	}
	store := repository.NewStore(db)

	// Initialize Redis cache
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if parsedDB, err := strconv.Atoi(dbStr); err == nil {
			redisDB = parsedDB
		}
	}

	redisCache := cache.NewRedisCache(redisAddr, redisPassword, redisDB)
	if err := redisCache.Ping(); err != nil {
		log.Printf("WARNING: Redis connection failed: %v. Running without cache.", err)
		redisCache = nil
	} else {
		log.Println("Redis cache connected successfully")
	}

	projCache := cache.NewProjectionCache(redisCache)
	presenceCache := cache.NewPresenceCache(redisCache)

	// Initialize S3/MinIO storage (best-effort; attachment staging degrades)
	var staging *storage.Staging
	if cfg, err := storage.LoadS3ConfigFromEnv(); err != nil {
		log.Printf("WARNING: S3 storage not configured: %v", err)
	} else if st, err := storage.NewS3Storage(cfg); err != nil {
		log.Printf("WARNING: Failed to initialize S3 storage: %v", err)
	} else {
		staging = storage.NewStaging(st, cfg)
		log.Printf("S3 storage initialized successfully (bucket=%s)", cfg.Bucket)
	}

	eng := engine.New(selfID, engine.Options{Store: store})
	warmStart(eng, store)

	fetcher := history.NewHTTPFetcher(upstreamURL, token)
	loader := history.NewLoader(fetcher, eng.Guard(), selfID)
	bootstrap(eng, loader, presenceCache)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := ws.NewClient(upstreamWS, token, eng, ws.NopSink{}, presenceCache)
	go func() {
		if err := client.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("WebSocket client stopped: %v", err)
		}
	}()

	handler := api.NewSyncHandler(eng, loader, client, ws.NopSink{}, projCache, staging)
	app := api.NewApp(handler)

	port := os.Getenv("LISTEN_PORT")
	if port == "" {
		port = "7070"
	}
	go func() {
		log.Printf("Projection API listening on port %s", port)
		if err := app.Listen(":" + port); err != nil {
			log.Fatal("Failed to start projection API: ", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down")
	cancel()
	if err := app.Shutdown(); err != nil {
		log.Printf("Error shutting down projection API: %v", err)
	}
}

// warmStart seeds the conversation list from the local database so projections
// are useful before the first upstream round trip completes.
func warmStart(eng *engine.Engine, store *repository.Store) {
	rows, err := store.Conversations.FindAll()
	if err != nil {
		log.Printf("WARNING: Failed to load cached conversations: %v", err)
		return
	}
	eng.Registry().Load(rows)
	for _, row := range rows {
		if row.Name != "" {
			eng.SetName(row.Key(), row.Name)
		}
	}
	log.Printf("Warm start with %d cached conversations", len(rows))
}

// bootstrap pulls the connect-time snapshots: roster, chat pins and groups.
// Failures are non-fatal, the next reconnect batch reconciles state anyway.
func bootstrap(eng *engine.Engine, loader *history.Loader, presence *cache.PresenceCache) {
	if roster, err := loader.LoadRoster(); err != nil {
		log.Printf("WARNING: Failed to load roster: %v", err)
	} else {
		counts := make(map[string]int, len(roster))
		for _, entry := range roster {
			key := models.DirectKey(entry.UserID)
			if entry.Name != "" {
				eng.SetName(key, entry.Name)
			}
			eng.HandlePresence(entry.UserID, entry.IsOnline)
			if entry.LastDirectMsg != "" {
				eng.HandleActivityUpdate(entry.UserID, entry.LastDirectMsg)
			}
			if entry.IsOnline {
				if err := presence.SetPeerOnline(entry.UserID); err != nil {
					log.Printf("Failed to cache presence for user %d: %v", entry.UserID, err)
				}
			}
			if entry.UnreadCount > 0 {
				counts[strconv.FormatUint(uint64(entry.UserID), 10)] = entry.UnreadCount
			}
		}
		eng.HandleUnreadSnapshot(counts)
	}

	if pins, err := loader.LoadPins(); err != nil {
		log.Printf("WARNING: Failed to load chat pins: %v", err)
	} else {
		for _, userID := range pins.Users {
			eng.HandleChatPinUpdated(models.DirectKey(userID), true)
		}
		for _, groupID := range pins.Groups {
			eng.HandleChatPinUpdated(models.GroupKey(groupID), true)
		}
	}

	if groups, err := loader.LoadGroups(); err != nil {
		log.Printf("WARNING: Failed to load groups: %v", err)
	} else {
		for _, group := range groups {
			eng.SetName(models.GroupKey(group.ID), group.Name)
		}
	}
}
