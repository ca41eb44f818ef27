package main

import (
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"curb-service/internal/assign"
	"curb-service/internal/config"
	"curb-service/internal/db"
	httpapi "curb-service/internal/http"
	"curb-service/internal/logging"
	"curb-service/internal/repository"
	"curb-service/internal/rules"
	"curb-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel)

	// The rule policy is loaded once and shared read-only; any gap in it is
	// fatal before the server starts serving.
	table, err := rules.LoadPolicy(cfg.PolicyPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.PolicyPath).Msg("failed to load rule policy")
	}
	log.Info().
		Str("path", cfg.PolicyPath).
		Float64("confidence_threshold", table.ConfidenceThreshold).
		Float64("overlap_threshold", table.OverlapThreshold).
		Msg("rule policy loaded")

	database, err := db.Connect(cfg.DB.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	repo := repository.NewCurbRepository(database)
	assignor := assign.NewAssignor(table.OverlapThreshold)
	evaluator := rules.NewEvaluator(table)
	curbService := service.NewCurbService(assignor, evaluator, repo, log)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type"},
	}))

	handler := httpapi.NewHandler(curbService, &cfg, log)
	handler.Register(r, httpapi.JWTAuthMiddleware(cfg.Auth.JWTSecret))

	log.Info().Str("port", cfg.Server.Port).Msg("starting curb analysis server")
	if err := r.Run(cfg.Server.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
