package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/khajiev13/lab-tutor-sub001/internal/handlers"
	"github.com/khajiev13/lab-tutor-sub001/internal/middleware"
	"github.com/khajiev13/lab-tutor-sub001/internal/platform/envutil"
)

type RouterConfig struct {
	CourseHandler    *handlers.CourseHandler
	FileHandler      *handlers.FileHandler
	EmbeddingHandler *handlers.EmbeddingHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.RequestID())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			envutil.String("FRONTEND_ORIGIN", "http://localhost:3000"),
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/courses", cfg.CourseHandler.CreateCourse)
		api.GET("/courses/:id", cfg.CourseHandler.GetCourse)
		api.GET("/courses/:id/status", cfg.CourseHandler.GetStatus)
		api.POST("/courses/:id/files", cfg.FileHandler.UploadFiles)
		api.POST("/courses/:id/embeddings", cfg.EmbeddingHandler.StartCourseEmbedding)
		api.POST("/files/:id/embeddings", cfg.EmbeddingHandler.EmbedFile)
	}

	return router
}
