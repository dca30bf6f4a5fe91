// Package server initializes and runs the mymee application: it opens the
// database, wires the OTP store, file storage and delivery channels into
// the services and serves the HTTP API until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/mymee/internal/logging"
	"github.com/dmitrijs2005/mymee/internal/server/config"
	"github.com/dmitrijs2005/mymee/internal/server/delivery"
	"github.com/dmitrijs2005/mymee/internal/server/httpapi"
	"github.com/dmitrijs2005/mymee/internal/server/kvstore"
	"github.com/dmitrijs2005/mymee/internal/server/models"
	"github.com/dmitrijs2005/mymee/internal/server/otp"
	"github.com/dmitrijs2005/mymee/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/mymee/internal/server/services"
	"github.com/dmitrijs2005/mymee/internal/server/storage"
	"github.com/dmitrijs2005/mymee/internal/server/themes"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const sweepInterval = time.Minute

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	memory  *kvstore.MemoryStore
	closers []io.Closer
	server  *httpapi.HTTPServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	app := &App{config: c, logger: logger}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.db = db
	app.closers = append(app.closers, db)

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if c.MigrateOnStart {
		if err := rm.RunMigrations(ctx, db); err != nil {
			app.close()
			return nil, fmt.Errorf("migrations error: %w", err)
		}
	}

	kv, err := app.newKVStore(ctx)
	if err != nil {
		app.close()
		return nil, err
	}

	fs, err := storage.New(ctx, c)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	otps := otp.NewStore(kv, c.OTPRetention)
	senders := newSenders(c, logger)

	accounts := services.NewAccountService(db, rm, otps, senders, c, logger)
	links := services.NewLinkService(db, rm, fs, logger)
	profiles := services.NewProfileService(db, rm, fs, themes.Builtin(), logger)

	opts := httpapi.Options{CORSOrigins: c.CORSOrigins}
	if local, ok := fs.(*storage.LocalStorage); ok {
		opts.UploadDir = local.Root()
		opts.UploadPrefix = local.PublicPrefix()
	}

	h := httpapi.NewHandler(accounts, links, profiles, c.SecretKey, logger)
	app.server = httpapi.NewHTTPServer(c.EndpointAddrHTTP, httpapi.NewRouter(h, opts), logger)

	return app, nil
}

// newKVStore picks where OTP challenges live. Redis is checked with a
// ping so a bad address fails at startup.
func (app *App) newKVStore(ctx context.Context) (kvstore.Store, error) {
	switch app.config.OTPStore {
	case "", "memory":
		app.memory = kvstore.NewMemoryStore()
		return app.memory, nil
	case "redis":
		client := kvstore.NewRedisClient(app.config.RedisAddr, app.config.RedisPassword, app.config.RedisDB)
		app.closers = append(app.closers, client)
		store := kvstore.NewRedisStore(client, "mymee")
		if err := store.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown otp store %q", app.config.OTPStore)
	}
}

// newSenders uses a real provider per channel when one is configured and
// falls back to writing codes to the log.
func newSenders(c *config.Config, logger logging.Logger) delivery.Senders {
	senders := delivery.Senders{
		models.ChannelEmail:    delivery.NewLogSender(models.ChannelEmail, logger),
		models.ChannelWhatsApp: delivery.NewLogSender(models.ChannelWhatsApp, logger),
	}
	if c.SMTPHost != "" {
		senders[models.ChannelEmail] = delivery.NewEmailSender(delivery.SMTPConfig{
			Host:     c.SMTPHost,
			Port:     c.SMTPPort,
			Username: c.SMTPUser,
			Password: c.SMTPPassword,
			From:     c.SMTPFrom,
		})
	}
	if c.WhatsAppAPIURL != "" {
		senders[models.ChannelWhatsApp] = delivery.NewWhatsAppSender(c.WhatsAppAPIURL, c.WhatsAppAPIToken)
	}
	return senders
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		_ = app.closers[i].Close()
	}
	app.closers = nil
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	if app.memory != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.memory.RunSweeper(ctx, sweepInterval)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close()
	app.logger.Info(context.Background(), "App stopped")
}
