package main

import (
	"os"
	"time"

	"schoolquiz-backend/internal/config"
	"schoolquiz-backend/internal/database"
	"schoolquiz-backend/internal/game"
	"schoolquiz-backend/internal/handlers"
	"schoolquiz-backend/internal/middleware"
	"schoolquiz-backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()

	db := database.Connect(cfg)
	database.AutoMigrate(db)

	authService := services.NewAuthService(db, cfg.JWTSecret)
	questionService := services.NewQuestionService(db)

	settings := game.DefaultSettings()
	settings.StartingLives = cfg.StartingLives
	settings.HostGrace = time.Duration(cfg.HostGraceSeconds) * time.Second
	settings.MaxTimeLimit = time.Duration(cfg.MaxTimeLimitSeconds) * time.Second
	registry := game.NewRegistry(settings, questionService)

	authHandler := handlers.NewAuthHandler(authService)
	questionHandler := handlers.NewQuestionHandler(questionService)
	roomHandler := handlers.NewRoomHandler(registry, authService)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/ws/host/:code", roomHandler.HandleHostSocket)
	r.GET("/ws/play/:code", roomHandler.HandlePlaySocket)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		questions := api.Group("/questions")
		questions.Use(middleware.JWTAuth(authService))
		{
			questions.GET("", questionHandler.ListQuestions)
			questions.GET("/subjects", questionHandler.ListSubjects)
			questions.GET("/languages", questionHandler.ListLanguages)
		}

		rooms := api.Group("/rooms")
		rooms.Use(middleware.JWTAuth(authService))
		{
			rooms.POST("", roomHandler.CreateRoom)
			rooms.GET("", roomHandler.ListRooms)
		}
	}

	log.Info().Str("port", cfg.ServerPort).Msg("server starting")
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
