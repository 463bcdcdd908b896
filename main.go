// Command voxelforge runs the voxel grid engine server: it rasterizes
// uploaded surface meshes into editable multi-material voxel projects and
// serves the JSON API the editor frontend talks to.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/voxelforge/internal/api"
	"github.com/banshee-data/voxelforge/internal/db"
	"github.com/banshee-data/voxelforge/internal/engine"
	"github.com/banshee-data/voxelforge/internal/monitor"
	"github.com/banshee-data/voxelforge/internal/version"
)

var (
	listen  = flag.String("listen", ":8080", "Listen address")
	dbFile  = flag.String("db", "voxelforge.db", "SQLite database file")
	dataDir = flag.String("data", "data", "Directory for uploaded meshes")
)

func main() {
	// subcommands run before flag-based server startup
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		dbPath := "voxelforge.db"
		if v := os.Getenv("VOXELFORGE_DB"); v != "" {
			dbPath = v
		}
		db.RunMigrateCommand(os.Args[2:], dbPath)
		return
	}

	flag.Parse()
	log.Printf("voxelforge %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	states, err := database.LoadState()
	if err != nil {
		log.Fatalf("Failed to load persisted state: %v", err)
	}

	eng := engine.New(database)
	eng.Restore(states)
	log.Printf("Restored %d project(s) from %s", len(states), *dbFile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", api.NewServer(eng, *dataDir).ServeMux()))

	// debugging routes: database stats and layer visualizations
	database.AttachAdminRoutes(mux, *dbFile)
	monitor.New(eng).AttachDebugRoutes(mux)

	server := &http.Server{
		Addr:    *listen,
		Handler: api.LoggingMiddleware(mux),
	}

	go func() {
		log.Printf("Listening on %s", *listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for context cancellation to shut down server
	<-ctx.Done()
	log.Println("Shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}
