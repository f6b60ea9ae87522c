package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/config"
	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/database"
	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/handlers"
	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/middleware"
	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/services"
	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/valkey-io/valkey-go"
	"golang.org/x/sync/errgroup"
)

func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.TimeOnly,
	})))

	cfg := config.Load()

	db := database.Connect(cfg)
	database.AutoMigrate(db)

	valkeyClient, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{cfg.ValkeyAddr},
	})
	if err != nil {
		slog.Error("failed to connect to valkey", "err", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	hub := ws.NewHub()
	registry := services.NewRegistry()

	authService := services.NewAuthService(cfg.JWTSecret)
	boardService := services.NewLeaderboardService(db)
	sessionService := services.NewSessionService(db, hub, registry, boardService)
	identityService := services.NewIdentityService(db, hub, sessionService, cfg.DeviceHashSalt)
	ticketService := services.NewTicketService(valkeyClient, identityService, time.Duration(cfg.TicketTTLSec)*time.Second)
	scoringService := services.NewScoringService(nil)
	answerService := services.NewAnswerService(db, hub, registry, sessionService, scoringService, boardService)
	progressionService := services.NewProgressionService(hub, registry, sessionService, answerService, boardService)
	exportService := services.NewExportService(db, sessionService, boardService)
	minigameService := services.NewMinigameService(hub, registry, sessionService, answerService, boardService, cfg.TickRate)
	audioRouter := services.NewAudioRouter(hub, registry)

	sessionHandler := handlers.NewSessionHandler(
		sessionService, identityService, progressionService, answerService,
		boardService, exportService, minigameService, audioRouter, hub,
	)
	playHandler := handlers.NewPlayHandler(identityService, ticketService, answerService, progressionService)
	wsHandler := handlers.NewWSHandler(hub, sessionService, identityService, authService, minigameService, audioRouter)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/ws/session/:code", wsHandler.HandleSession)

	api := r.Group("/api/v1")
	{
		sessions := api.Group("/sessions")
		sessions.Use(middleware.JWTAuth(authService))
		{
			sessions.POST("", sessionHandler.CreateSession)
			sessions.GET("/:id", sessionHandler.GetSession)
			sessions.POST("/:id/transition", sessionHandler.Transition)
			sessions.POST("/:id/players", sessionHandler.RegisterPlayer)
			sessions.POST("/:id/items/start", sessionHandler.StartItem)
			sessions.POST("/:id/items/lock", sessionHandler.LockItem)
			sessions.POST("/:id/items/reveal", sessionHandler.RevealAnswers)
			sessions.POST("/:id/items/navigate", sessionHandler.Navigate)
			sessions.GET("/:id/leaderboard", sessionHandler.GetLeaderboard)
			sessions.GET("/:id/export", sessionHandler.ExportResults)
			sessions.POST("/:id/minigame/start", sessionHandler.StartMinigame)
			sessions.POST("/:id/minigame/stop", sessionHandler.StopMinigame)
			sessions.POST("/:id/audio", sessionHandler.DispatchAudio)
		}

		answers := api.Group("/answers")
		answers.Use(middleware.JWTAuth(authService))
		{
			answers.PUT("/:id", sessionHandler.OverrideAnswer)
			answers.DELETE("/:id", sessionHandler.DeleteAnswer)
		}

		play := api.Group("/play")
		{
			play.POST("/join", playHandler.Join)
			play.GET("/claimable", playHandler.Claimable)
			play.POST("/claim", playHandler.Claim)
			play.GET("/token/:token", playHandler.Resolve)
			play.POST("/ticket", playHandler.IssueTicket)
			play.GET("/ticket/:ticket", playHandler.ResolveTicket)
			play.POST("/leave", playHandler.Leave)
			play.POST("/answer", playHandler.SubmitAnswer)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server starting", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		hub.SweepLoop(gctx.Done(), 5*time.Second)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
