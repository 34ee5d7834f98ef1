package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskhub/api/handler"
	"github.com/fastygo/taskhub/internal/config"
	"github.com/fastygo/taskhub/internal/infrastructure/monitor"
	"github.com/fastygo/taskhub/internal/infrastructure/outbox"
	pgInfra "github.com/fastygo/taskhub/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/taskhub/internal/infrastructure/redis"
	sqliteInfra "github.com/fastygo/taskhub/internal/infrastructure/sqlite"
	"github.com/fastygo/taskhub/internal/middleware"
	"github.com/fastygo/taskhub/internal/router"
	"github.com/fastygo/taskhub/internal/services/lifecycle"
	"github.com/fastygo/taskhub/internal/services/mail"
	"github.com/fastygo/taskhub/pkg/httpcontext"
	"github.com/fastygo/taskhub/pkg/logger"
	"github.com/fastygo/taskhub/pkg/media"
	"github.com/fastygo/taskhub/pkg/password"
	"github.com/fastygo/taskhub/pkg/token"
	"github.com/fastygo/taskhub/pkg/translator"
	"github.com/fastygo/taskhub/repository"
	"github.com/fastygo/taskhub/repository/postgres"
	redisRepo "github.com/fastygo/taskhub/repository/redis"
	"github.com/fastygo/taskhub/repository/sqlite"
	authUC "github.com/fastygo/taskhub/usecase/auth"
	commentUC "github.com/fastygo/taskhub/usecase/comment"
	profileUC "github.com/fastygo/taskhub/usecase/profile"
	taskUC "github.com/fastygo/taskhub/usecase/task"
)

// repositories is the relational storage selected by DB_DRIVER.
type repositories struct {
	users     repository.UserRepository
	tasks     repository.TaskRepository
	comments  repository.CommentRepository
	reactions repository.ReactionRepository
	probe     monitor.Probe
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	repos, err := openRepositories(appCtx, cfg, manager, zapLogger)
	if err != nil {
		zapLogger.Fatal("database connection failed", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}

	redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})
	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.JWT.RefreshTTL)

	outboxStore, err := outbox.Open(cfg.Outbox.Path, cfg.Outbox.MaxSize)
	if err != nil {
		zapLogger.Fatal("failed to open mail outbox", zap.Error(err))
	}
	manager.Register("outbox", func(ctx context.Context) error {
		return outboxStore.Close()
	})

	var sender mail.Sender = mail.NewLogSender(zapLogger)
	if cfg.SMTP.Enabled() {
		sender = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		zapLogger.Warn("SMTP_HOST not set, mail is written to the log")
	}

	mailProcessor, err := mail.NewProcessor(outboxStore, sender, zapLogger, mail.ProcessorConfig{
		Interval:   cfg.Outbox.SyncInterval,
		BatchSize:  50,
		MaxRetries: cfg.Outbox.MaxRetry,
	})
	if err != nil {
		zapLogger.Fatal("failed to schedule mail retries", zap.Error(err))
	}
	mailProcessor.Start()
	// Registered after the outbox so it stops first.
	manager.Register("mail_processor", mailProcessor.Stop)
	notifier := mail.NewNotifier(mailProcessor, zapLogger)

	mon := monitor.New(monitor.Probes{
		Database: repos.probe,
		Redis:    monitor.RedisProbe(redisClient),
		Outbox:   outboxStore.Size,
	}, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	tr, err := translator.New(cfg.I18n.DefaultLanguage, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to load translations", zap.Error(err))
	}

	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	images := media.NewStorage(cfg.Media.Root, cfg.Media.URL)

	authUseCase := authUC.New(repos.users, sessionRepo, tokens, password.NewHasher(0), notifier, zapLogger)
	profileUseCase := profileUC.New(repos.users, images, zapLogger)
	taskUseCase := taskUC.New(repos.tasks, repos.comments, repos.reactions, cfg.Comments.MaxDepth, zapLogger)
	commentUseCase := commentUC.New(repos.tasks, repos.comments, repos.reactions, cfg.Comments.MaxDepth, zapLogger)

	common := apiHandler.Common{
		Adapter:       httpcontext.NewAdapter(cfg.Context.RequestTimeout),
		Logger:        zapLogger,
		Translator:    tr,
		PublicBaseURL: cfg.Media.PublicBaseURL,
		PageSize:      cfg.Pagination.PageSize,
		MaxPageSize:   cfg.Pagination.MaxPageSize,
	}

	handlers := router.Handlers{
		Auth:    apiHandler.NewAuthHandler(authUseCase, common),
		Profile: apiHandler.NewProfileHandler(profileUseCase, common),
		Task:    apiHandler.NewTaskHandler(taskUseCase, common),
		Comment: apiHandler.NewCommentHandler(commentUseCase, common),
		Health:  apiHandler.NewHealthHandler(mon, common),
	}

	authMiddleware := middleware.JWTAuth(tokens, zapLogger)
	r := router.New(handlers, authMiddleware, router.FileRoots{
		Media:  cfg.Media.Root,
		Static: cfg.Media.StaticRoot,
	})

	server := &fasthttp.Server{
		Handler:            r.Handler,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		Concurrency:        cfg.HTTP.MaxConn,
		MaxRequestBodySize: cfg.HTTP.MaxRequestBodySize,
		Name:               cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()), zap.String("db_driver", cfg.Database.Driver))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

func openRepositories(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, zapLogger *zap.Logger) (*repositories, error) {
	if cfg.Database.Driver == config.DriverSQLite {
		db, err := sqliteInfra.Open(ctx, cfg.Database.SQLitePath, zapLogger)
		if err != nil {
			return nil, err
		}
		manager.Register("sqlite", func(ctx context.Context) error {
			return db.Close()
		})
		return &repositories{
			users:     sqlite.NewUserRepository(db),
			tasks:     sqlite.NewTaskRepository(db),
			comments:  sqlite.NewCommentRepository(db),
			reactions: sqlite.NewReactionRepository(db),
			probe:     monitor.SQLProbe(db),
		}, nil
	}

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		return nil, err
	}
	pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
	if err != nil {
		return nil, err
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})
	return &repositories{
		users:     postgres.NewUserRepository(pool),
		tasks:     postgres.NewTaskRepository(pool),
		comments:  postgres.NewCommentRepository(pool),
		reactions: postgres.NewReactionRepository(pool),
		probe:     monitor.PostgresProbe(pool),
	}, nil
}
