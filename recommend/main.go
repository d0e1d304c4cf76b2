package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/yuchenf/nightbite/config"
)

type App struct {
	config  *config.Config
	handler *Handler
	pg      *Pg
}

func main() {
	cfg := config.LoadConfig()

	pg, err := NewDecisionPg(cfg.Postgres.ConnStr())
	if err != nil {
		log.Fatal(err)
	}

	model, err := NewDeepSeekClient(&cfg.DeepSeek)
	if err != nil {
		log.Fatal(err)
	}

	var events eventPublisher
	if cfg.Nats.Enabled() {
		ec, err := NewEventsClient(&cfg.Nats)
		if err != nil {
			log.Fatal(err)
		}
		defer ec.Close()
		events = ec
	}

	handler := NewHandler(pg, model, NewCalibrator(nil), events)

	app := &App{
		config:  cfg,
		handler: handler,
		pg:      pg,
	}

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("failed to run the recommender: %v", err)
	}
}

func (a *App) routes() *gin.Engine {
	r := gin.Default()

	// The form is served from a static host, so the browser preflights
	// every request. Answer preflights with 200 like the form expects.
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:           true,
		AllowMethods:              []string{http.MethodPost, http.MethodOptions},
		AllowHeaders:              []string{"authorization", "x-client-info", "apikey", "content-type"},
		OptionsResponseStatusCode: http.StatusOK,
	}))

	r.GET("/health", func(ctx *gin.Context) {
		if err := a.pg.Ping(ctx.Request.Context()); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": err.Error()})
			return
		}

		ctx.JSON(http.StatusOK, gin.H{"status": "up"})
	})

	r.POST("/recommend", func(ctx *gin.Context) {
		var req RecommendRequest

		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		resp, err := a.handler.Recommend(ctx.Request.Context(), &req)
		if err != nil {
			slog.Error("recommend request failed", "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		ctx.JSON(http.StatusOK, resp)
	})

	r.GET("/decisions", func(ctx *gin.Context) {
		decisions, err := a.pg.ListDecisions(ctx.Request.Context(), 50)
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		ctx.JSON(http.StatusOK, decisions)
	})

	return r
}

func (a *App) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    a.config.Server.Address(),
		Handler: a.routes(),
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	group.Go(func() error {
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case <-ctx.Done():
		case <-shutdown:
			slog.Info("Shutting down")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
