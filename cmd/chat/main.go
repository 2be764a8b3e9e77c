package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/goliatone/go-chat/auth"
	"github.com/goliatone/go-chat/chat"
	"github.com/goliatone/go-chat/config"
	"github.com/goliatone/go-chat/repository"
	"github.com/goliatone/go-chat/views"
)

var _ auth.Config = (*config.Config)(nil)

type App struct {
	config   *config.Config
	bunDB    *bun.DB
	repo     repository.Manager
	tokens   auth.TokenService
	auther   *auth.RouteAuthenticator
	authCtrl *auth.AuthController
	srv      *fiber.App
	logger   *glog.BaseLogger
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func NewLogger(debug bool) *glog.BaseLogger {
	level := glog.Info
	if debug {
		level = glog.Trace
	}

	return glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(level),
		glog.WithName("chat"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("============")
	fmt.Println(print.MaybePrettyJSON(cfg))
	fmt.Println("============")

	app := &App{
		config: cfg,
		logger: NewLogger(cfg.Debug),
	}
	lgr := app.GetLogger("app")

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		log.Fatal(err)
	}
	defer app.bunDB.Close()

	if err := WithHTTPAuth(ctx, app); err != nil {
		log.Fatal(err)
	}

	WithHTTPServer(app)

	go func() {
		if err := app.srv.Listen(cfg.Addr); err != nil {
			lgr.Error("server stopped", "error", err)
		}
	}()

	lgr.Info("listening", "addr", cfg.Addr)

	sig := WaitExitSignal()
	lgr.Info("shutting down", "signal", sig.String())

	if err := app.srv.ShutdownWithTimeout(10 * time.Second); err != nil {
		lgr.Error("shutdown", "error", err)
	}
}

func WithPersistence(ctx context.Context, app *App) error {
	sqldb, err := sql.Open(sqliteshim.ShimName, app.config.DatabaseURL)
	if err != nil {
		return err
	}

	// sqlite allows a single writer
	sqldb.SetMaxOpenConns(1)

	app.bunDB = bun.NewDB(sqldb, sqlitedialect.New())
	app.repo = repository.NewRepositoryManager(app.bunDB)
	app.repo.MustValidate()

	if err := app.repo.CreateSchema(ctx); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// WithHTTPAuth fails when the signing key is unusable so a misconfigured
// process never starts serving.
func WithHTTPAuth(ctx context.Context, app *App) error {
	tokens, err := auth.NewTokenService(
		[]byte(app.config.GetSigningKey()),
		app.config.GetTokenExpiration(),
		app.GetLogger("auth:tokens"),
	)
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}

	issuer := auth.NewSessionIssuer(tokens, auth.WithIssuerLogger(app.GetLogger("auth:session")))

	users := app.repo.Users()
	authLogger := app.GetLogger("auth:authz")
	auther := auth.NewAuthenticator(users, issuer).
		WithLogger(authLogger).
		WithLoginHook(func(ctx context.Context, user *auth.User) {
			if err := users.TrackSuccessfulLogin(ctx, user); err != nil {
				authLogger.Warn("track login", "user", user.ID.String(), "error", err)
			}
		})

	app.tokens = tokens
	app.auther = auth.NewHTTPAuthenticator(auther, tokens, issuer, app.config)
	app.auther.Logger = app.GetLogger("auth:http")
	app.authCtrl = auth.NewAuthController(app.auther, auth.NewRegisterUserHandler(app.repo))
	app.authCtrl.Logger = app.GetLogger("auth:ctrl")

	return nil
}

func WithHTTPServer(app *App) {
	srv := fiber.New(fiber.Config{
		AppName: "go-chat",
		Views:   views.New(app.config.ViewsDir, app.config.Debug),
	})

	srv.Use(recover.New())
	srv.Use(logger.New())

	srv.Static("/static", app.config.StaticDir)

	srv.Use(app.auther.SessionRoute(func(c *fiber.Ctx) bool {
		return strings.HasPrefix(c.Path(), "/static") || app.authCtrl.IsAuthRoute(c)
	}))

	auth.RegisterAuthRoutes(srv, app.authCtrl)
	chat.RegisterRoutes(srv, chat.NewController(app.repo.Messages(), app.GetLogger("chat")))

	app.srv = srv
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
