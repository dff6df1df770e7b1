package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-token-server/auth"
	fakeclientrepo "github.com/jrsteele09/go-token-server/clients/fakerepo"
	"github.com/jrsteele09/go-token-server/internal/config"
	"github.com/jrsteele09/go-token-server/internal/locks"
	"github.com/jrsteele09/go-token-server/internal/logging"
	"github.com/jrsteele09/go-token-server/internal/persistence/postgres"
	"github.com/jrsteele09/go-token-server/internal/persistence/sqlite"
	"github.com/jrsteele09/go-token-server/server"
	tokenfakerepo "github.com/jrsteele09/go-token-server/token/repofake"
	fakeuserrepo "github.com/jrsteele09/go-token-server/users/repofake"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(c.GetLogLevel(), c.GetEnv())
	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeRepos, err := openRepos(ctx, c)
	if err != nil {
		return err
	}
	defer closeRepos()

	var options []auth.ServiceOption
	if c.GetLockDriver() == config.LockRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     c.GetRedisAddr(),
			Password: c.GetRedisPassword(),
			DB:       c.GetRedisDB(),
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		options = append(options, auth.WithLocker(locks.NewRedisLocker(client, locks.WithTTL(c.GetLockTTL()))))
	}

	handler, err := server.New(c, repos, options...)
	if err != nil {
		return err
	}
	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return listenAndServe(httpServer)
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(httpServer, c)
	})
	return g.Wait()
}

// openRepos selects the storage backend named by STORAGE_DRIVER.
func openRepos(ctx context.Context, c config.Config) (auth.Repos, func(), error) {
	log.Info().Str("driver", c.GetStorageDriver()).Msg("opening storage")

	switch c.GetStorageDriver() {
	case config.StorageSQLite:
		store, err := sqlite.Open(c.GetSQLitePath())
		if err != nil {
			return auth.Repos{}, nil, err
		}
		repos := auth.Repos{Users: store.Users(), Clients: store.Clients(), Tokens: store}
		return repos, func() { _ = store.Close() }, nil

	case config.StoragePostgres:
		store, err := postgres.Open(ctx, c.GetPostgresDSN(), postgres.Options{
			MaxConns:      c.GetPostgresMaxConns(),
			RunMigrations: c.GetPostgresRunMigrations(),
		})
		if err != nil {
			return auth.Repos{}, nil, err
		}
		repos := auth.Repos{Users: store.Users(), Clients: store.Clients(), Tokens: store.Tokens()}
		return repos, store.Close, nil

	default:
		log.Warn().Msg("in-memory storage: tokens are lost on restart")
		repos := auth.Repos{
			Users:   fakeuserrepo.NewFakeUserRepo(),
			Clients: fakeclientrepo.NewFakeClientRepo(),
			Tokens:  tokenfakerepo.NewFakeTokensRepo(),
		}
		return repos, func() {}, nil
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(server *http.Server, c config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.GetShutdownTimeout())
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
