package main

import (
	"context"
	"fmt"
	"os"

	"github.com/khajiev13/lab-tutor-sub001/internal/conceptextract"
	"github.com/khajiev13/lab-tutor-sub001/internal/data/db"
	"github.com/khajiev13/lab-tutor-sub001/internal/data/graph"
	"github.com/khajiev13/lab-tutor-sub001/internal/data/repos/files"
	"github.com/khajiev13/lab-tutor-sub001/internal/handlers"
	"github.com/khajiev13/lab-tutor-sub001/internal/platform/envutil"
	"github.com/khajiev13/lab-tutor-sub001/internal/platform/logger"
	"github.com/khajiev13/lab-tutor-sub001/internal/platform/neo4jdb"
	"github.com/khajiev13/lab-tutor-sub001/internal/platform/openai"
	"github.com/khajiev13/lab-tutor-sub001/internal/server"
	"github.com/khajiev13/lab-tutor-sub001/internal/services"
)

func main() {
	// Logger
	logMode := envutil.String("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	gdb, err := db.NewPostgres(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}

	// Neo4j
	neo, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		log.Error("Neo4j init failed", "error", err)
		os.Exit(1)
	}
	defer neo.Close(context.Background())

	// OpenAI
	aiClient, err := openai.NewClient(log)
	if err != nil {
		log.Error("Could not init OpenAI client", "error", err)
		os.Exit(1)
	}

	// Repos
	log.Info("Setting up repos...")
	courseRepo := files.NewCourseRepo(gdb, log)
	courseFileRepo := files.NewCourseFileRepo(gdb, log)
	graphRepo := graph.NewConceptGraphRepo(graph.NewNeo4jRunner(neo), log)

	if err := graphRepo.InitSchema(context.Background()); err != nil {
		log.Error("Graph schema init failed", "error", err)
		os.Exit(1)
	}

	// Services
	log.Info("Setting up services...")
	extractor := conceptextract.NewOpenAIExtractor(aiClient, log)
	courseService := services.NewCourseService(gdb, log, courseRepo)
	statusService := services.NewCourseStatusService(gdb, courseRepo, courseFileRepo)
	ingestionService := services.NewIngestionService(gdb, log, extractor, graphRepo, courseRepo, courseFileRepo)
	embeddingService := services.NewEmbeddingService(gdb, log, aiClient, graphRepo, courseRepo, courseFileRepo)

	// Handlers
	log.Info("Setting up handlers...")
	courseHandler := handlers.NewCourseHandler(log, courseService, statusService)
	fileHandler := handlers.NewFileHandler(log, ingestionService)
	embeddingHandler := handlers.NewEmbeddingHandler(log, embeddingService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		CourseHandler:    courseHandler,
		FileHandler:      fileHandler,
		EmbeddingHandler: embeddingHandler,
	})

	port := envutil.String("PORT", "8080")
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
