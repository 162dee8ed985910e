package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/rodrigiego-coder/beauty-manager-sub006/database"
	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/jobs"
	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/models"
	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/routes"
	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/services"
	"github.com/rodrigiego-coder/beauty-manager-sub006/internal/storage"
)

func main() {
	// Load .env file for local development
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		err := godotenv.Load(".env")
		if err != nil {
			err = godotenv.Load("environments/.env.development")
			if err != nil {
				log.Println("⚠️  No .env file found - checking environment variables")
			}
		}
	}

	// Initialize storage
	var store storage.Store

	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		database.Connect()

		log.Println("🔄 Running database migrations...")
		err := database.DB.AutoMigrate(
			&models.Conversation{},
			&models.TurnState{},
			&models.Message{},
			&models.Appointment{},
			&models.SalonService{},
			&models.Professional{},
			&models.Product{},
			&models.ServicePackage{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(database.DB)
		log.Println("✅ Using PostgreSQL database storage")
	}
	storage.SetStore(store)

	// Initialize Twilio transport
	var transport services.Transport
	twilioService, err := services.NewTwilioService()
	if err != nil {
		log.Printf("⚠️  Twilio not configured - replies will be logged only: %v", err)
	} else {
		services.SetTwilioService(twilioService)
		transport = twilioService
		log.Println("✅ Twilio service initialized")
	}

	// Initialize the generator (optional; structured flows work without it)
	var generator services.Generator
	openAI, err := services.NewOpenAIGenerator()
	if err != nil {
		log.Printf("⚠️  Generator not configured - open-ended questions get the static menu: %v", err)
	} else {
		generator = openAI
		log.Println("✅ Generator initialized")
	}

	// Assemble the assistant
	coalescer := services.NewCoalescer()
	commits := services.NewCommitCoordinator(
		store,
		services.NewStoreBookings(store),
		services.NewURLBookingLinker(os.Getenv("BOOKING_LINK_BASE_URL")),
	)
	assistant := services.NewAssistant(store, coalescer, generator, commits)
	log.Println("✅ Assistant assembled")

	// Start scheduled jobs
	scheduler := jobs.NewScheduler(store, transport)
	if err := scheduler.Start(); err != nil {
		log.Fatal("Failed to start scheduled jobs:", err)
	}

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "Beauty Manager Assistant v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	routes.SetupRoutes(app, store, assistant, transport)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		scheduler.Stop()
		log.Println("⏹️  Shutting down server...")
		_ = app.Shutdown()
	}()

	log.Println("========================================")
	log.Printf("🚀 Beauty Manager Assistant starting on port %s", port)
	log.Printf("📊 Storage: %s", storageType())
	log.Printf("📱 WhatsApp: %s", twilioStatus(transport))
	log.Println("========================================")

	log.Fatal(app.Listen(":" + port))
}

func storageType() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}

func twilioStatus(transport services.Transport) string {
	if transport == nil {
		return "Not configured"
	}
	return "Configured"
}
