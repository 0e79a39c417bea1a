package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/albertelmo/goodlift-sub001/internal/api"
	"github.com/albertelmo/goodlift-sub001/internal/config"
	"github.com/albertelmo/goodlift-sub001/internal/repository/mongo"
	"github.com/albertelmo/goodlift-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting GoodLift workout record server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureRecordIndexes(ctx, appDB.Collection("workout_records"))
		mongo.EnsureSetIndexes(ctx, appDB.Collection("workout_sets"))
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	recordRepo := mongo.NewMongoRecordRepository(appDB)
	setRepo := mongo.NewMongoSetRepository(appDB)
	typeRepo := mongo.NewMongoWorkoutTypeRepository(appDB)
	txRunner := mongo.NewTxRunner(dbClient)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	events := service.NewAsyncEventPublisher()
	defer events.Close()
	typeCatalog := service.NewTypeCatalog(typeRepo)
	recordService := service.NewRecordService(recordRepo, setRepo, typeCatalog, txRunner, events)
	summaryService := service.NewSummaryService(recordRepo, setRepo, typeCatalog)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, recordService, summaryService, typeCatalog)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
