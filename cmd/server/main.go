package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/Hanc1999/LiveNote/internal/auth"
	"github.com/Hanc1999/LiveNote/internal/db"
	"github.com/Hanc1999/LiveNote/internal/feed"
	mcpserver "github.com/Hanc1999/LiveNote/internal/mcp"
	"github.com/Hanc1999/LiveNote/internal/notes"
)

func main() {
	// Config
	mongoURI := getEnv("MONGODB_URI", "mongodb://localhost:27017")
	mongoDB := getEnv("MONGODB_DB", "livenote")
	port := getEnv("PORT", "7542")
	jwtSecret := getEnv("JWT_SECRET", "")
	mcpUser := getEnv("MCP_USER", "mcp")

	// Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if jwtSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	// Context for startup
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect to MongoDB
	logger.Info("connecting to MongoDB", "uri", mongoURI)
	database, err := db.Connect(ctx, mongoURI, mongoDB)
	if err != nil {
		log.Fatalf("failed to connect to MongoDB: %v", err)
	}
	logger.Info("connected to MongoDB")

	// Wire dependencies
	hub := feed.NewHub[notes.Event]()
	noteRepo := notes.NewRepo(database, hub)
	if err := noteRepo.EnsureIndexes(ctx); err != nil {
		logger.Warn("failed to ensure note indexes", "error", err)
	}

	tokens := auth.NewTokenService(jwtSecret, 24*time.Hour)
	authSvc := auth.NewService(database, tokens)
	if err := authSvc.EnsureIndexes(ctx); err != nil {
		logger.Warn("failed to ensure user indexes", "error", err)
	}

	noteSvc := notes.NewService(noteRepo, logger)
	noteHandler := notes.NewHandler(noteSvc, authSvc, logger)

	// Create MCP server
	mcpSrv := mcpserver.NewServer(noteSvc, mcpUser)

	// HTTP router
	mux := http.NewServeMux()
	authed := auth.Middleware(tokens)

	// Auth endpoints (open)
	mux.HandleFunc("POST /api/auth/register", noteHandler.Register)
	mux.HandleFunc("POST /api/auth/login", noteHandler.Login)

	// Note endpoints (require a bearer token)
	mux.Handle("GET /api/notes", authed(http.HandlerFunc(noteHandler.ListNotes)))
	mux.Handle("POST /api/notes", authed(http.HandlerFunc(noteHandler.CreateNote)))
	mux.Handle("GET /api/notes/{id}", authed(http.HandlerFunc(noteHandler.GetNote)))
	mux.Handle("PUT /api/notes/{id}", authed(http.HandlerFunc(noteHandler.UpdateNote)))
	mux.Handle("DELETE /api/notes/{id}", authed(http.HandlerFunc(noteHandler.DeleteNote)))
	mux.Handle("GET /api/notes/{id}/html", authed(http.HandlerFunc(noteHandler.RenderNote)))

	// Realtime change feed over WebSocket
	mux.Handle("GET /api/changes", authed(notes.ServeChanges(hub, logger)))

	// MCP endpoint (HTTP transport)
	// MCP uses POST for requests and GET for SSE streams
	mcpHTTP := server.NewStreamableHTTPServer(mcpSrv)
	mux.Handle("POST /mcp", mcpHTTP)
	mux.Handle("GET /mcp", mcpHTTP)
	mux.Handle("DELETE /mcp", mcpHTTP)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Start server
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
		hub.Close()
		if err := db.Disconnect(database, 5*time.Second); err != nil {
			logger.Error("mongo disconnect error", "error", err)
		}
	}()

	logger.Info("server starting", "port", port)
	logger.Info("endpoints available",
		"api", "http://localhost:"+port+"/api",
		"changes", "ws://localhost:"+port+"/api/changes",
		"mcp", "http://localhost:"+port+"/mcp",
	)

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}

	logger.Info("server stopped")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
