package main // Entry point package

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/renewalhub/renewalhub/internal/config"
	"github.com/renewalhub/renewalhub/internal/database"
	"github.com/renewalhub/renewalhub/internal/handler"
	"github.com/renewalhub/renewalhub/internal/mail"
	"github.com/renewalhub/renewalhub/internal/notifier"
	"github.com/renewalhub/renewalhub/internal/queue"
	"github.com/renewalhub/renewalhub/internal/repository"
	"github.com/renewalhub/renewalhub/internal/router"
	queuepub "github.com/renewalhub/renewalhub/internal/service"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	if err := database.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	rdb := config.NewRedisClient() // nil when unavailable; features degrade
	if rdb == nil {
		log.Printf("redis unavailable, rate limiting and stats cache disabled")
	}

	users := repository.NewUserRepo(db)
	categories := repository.NewCategoryRepo(db)
	services := repository.NewServiceRepo(db)
	settings := repository.NewSettingsRepo(db)
	emailLogs := repository.NewEmailLogRepo(db)

	engine := &notifier.Engine{
		Services:     services,
		Settings:     settings,
		Logs:         emailLogs,
		NewTransport: mail.New,
		Publish: func(ctx context.Context, ev queue.ReminderSentEvent) {
			_ = queuepub.PublishReminderSent(ctx, ev)
		},
	}
	scheduler := notifier.NewScheduler(engine, cfg.CheckHour, cfg.CheckMinute)
	scheduler.Start()

	// Background consumer mirroring reminder events into logs/reminders.log.
	go func() {
		if err := queue.StartReminderConsumer(); err != nil {
			log.Printf("reminder consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.Register(e, cfg, rdb, users, router.Handlers{
		Auth:       handler.NewAuthHandler(cfg, users),
		Users:      handler.NewUserHandler(users),
		Categories: handler.NewCategoryHandler(categories, services),
		Services:   handler.NewServiceHandler(services, emailLogs, engine),
		Settings:   handler.NewSettingsHandler(settings),
		Dashboard:  handler.NewDashboardHandler(services, rdb, scheduler),
	})

	go func() {
		addr := ":" + cfg.Port
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil {
			log.Printf("http server stopped: %v", err)
		}
	}()

	// Stop the scheduler before the DB pool closes so a sweep never writes
	// through a closed connection.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	scheduler.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = e.Shutdown(ctx)
	_ = db.Close()
}
