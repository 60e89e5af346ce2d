package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rational-assistant/internal/auth"
	"rational-assistant/internal/cache"
	"rational-assistant/internal/config"
	"rational-assistant/internal/handlers"
	"rational-assistant/internal/logging"
	"rational-assistant/internal/parser"
	"rational-assistant/internal/purchases"
	"rational-assistant/internal/scheduler"
	"rational-assistant/internal/storage"
	"rational-assistant/internal/telegram"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		slog.Error("setup logging", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	db, err := storage.Open(cfg.DBSource())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	slog.Info("database ready", "driver", db.Driver())

	if err := seedAdmin(ctx, db, cfg.Admin.User, cfg.Admin.Password); err != nil {
		return err
	}

	c, err := openCache(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer c.Close()

	clientOpts := []telegram.ClientOption{telegram.WithDedupe(c, cfg.Telegram.DedupeWindow)}
	if cfg.Telegram.TestMode {
		clientOpts = append(clientOpts, telegram.WithTestMode())
	}
	client := telegram.NewClient(cfg.Telegram.APIURL, cfg.Telegram.BotToken, cfg.Telegram.Enabled, clientOpts...)
	var notifier purchases.Notifier
	if client.Enabled() {
		notifier = telegram.NewNotifier(client, c)
	}
	svc := purchases.NewService(db, notifier)

	p := parser.New(
		parser.WithHTTPClient(&http.Client{Timeout: cfg.Parser.Timeout}),
		parser.WithCache(c, cfg.Parser.CacheTTL),
	)
	codes := auth.NewLinkCodes(c)
	h := handlers.NewHandlers(db, svc, p, codes, cfg.SecureCookie)

	sched := scheduler.New()
	registerJobs(sched, db, svc, cfg)
	sched.Start()
	defer sched.Stop()

	if client.Enabled() {
		bot := telegram.NewBot(client, db, svc, codes)
		go func() {
			if err := bot.Run(ctx); err != nil {
				slog.Error("telegram bot stopped", "error", err)
			}
		}()
		slog.Info("telegram bot started")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupRouter(h *handlers.Handlers) http.Handler {
	return handlers.NewRouter(h)
}

func openCache(ctx context.Context, cfg config.RedisConfig) (cache.Cache, error) {
	if !cfg.Enabled {
		return cache.NewMemory(), nil
	}
	c, err := cache.NewRedis(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	slog.Info("redis cache ready", "addr", cfg.Addr)
	return c, nil
}

func registerJobs(s *scheduler.Scheduler, db *storage.DB, svc *purchases.Service, cfg *config.Config) {
	s.Register(&scheduler.Job{
		Name:        "cooling-ended",
		Description: "Ask users to decide on purchases whose cooling period is over",
		Schedule:    scheduler.Every(cfg.CoolingCheckInterval),
		Handler: func(ctx context.Context) error {
			sent, err := svc.NotifyCoolingEnded(ctx)
			if sent > 0 {
				slog.Info("cooling-off notices sent", "count", sent)
			}
			return err
		},
	})
	s.Register(&scheduler.Job{
		Name:        "weekly-stats",
		Description: "Send the weekly decision summary",
		Schedule:    scheduler.WeeklyAt(time.Weekday(cfg.WeeklyStats.Weekday), cfg.WeeklyStats.Hour, 0),
		Handler: func(ctx context.Context) error {
			sent, err := svc.SendWeeklyStats(ctx)
			slog.Info("weekly stats sent", "count", sent)
			return err
		},
	})
	s.Register(&scheduler.Job{
		Name:        "session-cleanup",
		Description: "Delete expired sessions",
		Schedule:    scheduler.Every(24 * time.Hour),
		Handler:     db.CleanExpiredSessions,
	})
}

// seedAdmin creates the configured account on first start.
func seedAdmin(ctx context.Context, db *storage.DB, nickname, password string) error {
	if nickname == "" || password == "" {
		return nil
	}
	_, err := db.GetUserByNickname(ctx, nickname)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("look up admin user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	user, err := db.CreateUser(ctx, storage.NewUser{
		Nickname:              nickname,
		PasswordHash:          hash,
		UseSavingsCalculation: true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	slog.Info("admin user created", "nickname", user.Nickname, "user_id", user.ID)
	return nil
}
