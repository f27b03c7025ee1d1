package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/JanDalhuysen/MathsGuessr/config"
	"github.com/JanDalhuysen/MathsGuessr/game"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", func(ctx *gin.Context) { ctx.String(http.StatusOK, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func main() {
	// .env is optional; real deployments set the environment directly.
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	gin.SetMode(cfg.GinMode)

	broker := game.NewListingBroker()
	lobby := game.NewLobby(game.NewIdGen(), game.NewTickerGen(), broker)
	started := make(chan struct{})
	go lobby.LobbyActor(started)
	<-started

	questions := game.NewCompositeQuestionSource(
		game.NewMathQuestionSource(),
		game.NewTriviaQuestionSource(cfg.TriviaURL, cfg.TriviaTimeout),
	)

	handler := game.NewGameHandler(lobby, broker, questions, game.RoomConfigs{
		MaxPlayers:    cfg.MaxPlayers,
		RoundInterval: cfg.RoundInterval,
		EmptyGrace:    cfg.EmptyRoomGrace,
	})

	r := CreateServer(cfg.AllowedOrigins)
	handler.RegisterRoutes(r)

	server := http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctrlc
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown did not finish cleanly", "error", err)
		}
	}()

	slog.Info("listening", "addr", cfg.HTTPAddr)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("server closed", "error", err)
		os.Exit(1)
	}
	slog.Info("server closed")
}
