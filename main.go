package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/tyumu/Roamloid/modules/api"
	"github.com/tyumu/Roamloid/modules/auth"
	"github.com/tyumu/Roamloid/modules/presence"
	"github.com/tyumu/Roamloid/modules/room"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Roamloid Backend ===")

	// Shared relational store for the auth and room modules
	dbPath := os.Getenv("ROAMLOID_DB_PATH")
	if dbPath == "" {
		dbPath = "roamloid.db"
	}
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	authModule := auth.NewModule(db)
	roomModule := room.NewModule(db)
	presenceModule := presence.NewModule()
	apiModule := api.NewModule()

	// Inject the presence hub into the API module
	// (done manually because the hub is not exposed via ServiceContainer)
	apiModule.SetHub(presenceModule.GetHub())

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	app.Register(authModule)     // Accounts + session tokens
	app.Register(roomModule)     // Devices, chat messages, active-device tracking
	app.Register(presenceModule) // In-memory presence hub
	app.Register(apiModule)      // HTTP + socket API (depends on auth, room)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(dbPath)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				if err := app.Stop(ctx); err != nil {
					return err
				}
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(dbPath string) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("Database: %s", dbPath)
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /api/health               - Health check")
	log.Println("  POST   /api/auth/signup          - Register a new user")
	log.Println("  POST   /api/auth/login           - Login and get a session token")
	log.Println("  POST   /api/auth/logout          - Logout (Bearer token)")
	log.Println("  POST   /api/auth/change-password - Change password (Bearer token)")
	log.Println("  GET    /api/auth/detail          - Current user details (Bearer token)")
	log.Println("  DELETE /api/auth/delete          - Delete account (Bearer token)")
	log.Println("")
	log.Printf("Socket Endpoint (ws://localhost:%s/ws?token=<session token>):", port)
	log.Println("  Events: join_room {device_name}, send_data {device_name, msg, move}")
	log.Println("  Emissions: system, joined, receive_data, moved_3d, error")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
