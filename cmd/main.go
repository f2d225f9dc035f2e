package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ariet2003/cashier-service/internal/api"
	"github.com/Ariet2003/cashier-service/internal/config"
	"github.com/Ariet2003/cashier-service/internal/event"
	"github.com/Ariet2003/cashier-service/internal/repository"
	"github.com/Ariet2003/cashier-service/internal/service"
	"github.com/Ariet2003/cashier-service/internal/session"
	"github.com/Ariet2003/cashier-service/migrations"
)

const modes = "server | migrate | start-shift | end-shift | activate-user | deactivate-user | hash-password"

type publisher interface {
	service.EventPublisher
	Close() error
}

func main() {
	mode := flag.String("mode", "server", modes)
	staff := flag.String("staff", "", "start-shift: comma-separated user ids assigned to the new shift")
	userID := flag.Int("user", 0, "activate-user/deactivate-user: user id")
	password := flag.String("password", "", "hash-password: plain password to hash")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch *mode {
	case "server":
		err = runServer(ctx, cfg)
	case "migrate":
		err = withDB(ctx, cfg, func(db *sql.DB) error { return nil })
	case "start-shift":
		ids, perr := parseIDs(*staff)
		if perr != nil {
			fmt.Fprintln(os.Stderr, "-staff must be a comma-separated list of user ids:", perr)
			os.Exit(2)
		}
		err = withDB(ctx, cfg, func(db *sql.DB) error {
			shift, err := adminService(db, cfg).StartShift(ctx, ids)
			if err != nil {
				return err
			}
			fmt.Printf("shift %d started at %s\n", shift.ID, shift.StartedAt.Format(time.RFC3339))
			return nil
		})
	case "end-shift":
		err = withDB(ctx, cfg, func(db *sql.DB) error {
			return adminService(db, cfg).EndShift(ctx)
		})
	case "activate-user", "deactivate-user":
		if *userID <= 0 {
			fmt.Fprintln(os.Stderr, "-user is required")
			os.Exit(2)
		}
		active := *mode == "activate-user"
		err = withDB(ctx, cfg, func(db *sql.DB) error {
			return adminService(db, cfg).SetUserActive(ctx, *userID, active)
		})
	case "hash-password":
		if *password == "" {
			fmt.Fprintln(os.Stderr, "-password is required")
			os.Exit(2)
		}
		hash, herr := bcrypt.GenerateFromPassword([]byte(*password), cfg.Auth.BcryptCost)
		if herr != nil {
			err = herr
			break
		}
		fmt.Println(string(hash))
	default:
		fmt.Fprintln(os.Stderr, "-mode must be one of:", modes)
		os.Exit(2)
	}

	if err != nil {
		log.Fatal().Err(err).Str("mode", *mode).Msg("command failed")
	}
}

// withDB connects, applies migrations and runs fn.
func withDB(ctx context.Context, cfg *config.Config, fn func(db *sql.DB) error) error {
	db, err := config.ConnectDB(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.AutoMigrate(ctx, db, 3); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return fn(db)
}

func adminService(db *sql.DB, cfg *config.Config) *service.AdminService {
	return service.NewAdminService(
		repository.NewShiftRepository(db, cfg.DB.Timeout),
		repository.NewUserRepository(db, cfg.DB.Timeout),
	)
}

func runServer(ctx context.Context, cfg *config.Config) error {
	if cfg.Auth.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}

	return withDB(ctx, cfg, func(db *sql.DB) error {
		rdb := config.NewRedisClient(cfg.Redis)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, login throttle will fail open")
		}

		var pub publisher = event.NopPublisher{}
		if cfg.Kafka.Enabled() {
			pub = event.NewKafkaPublisher(config.NewKafkaWriter(cfg.Kafka))
		}
		defer pub.Close()

		users := repository.NewUserRepository(db, cfg.DB.Timeout)
		shifts := repository.NewShiftRepository(db, cfg.DB.Timeout)
		orders := repository.NewOrderRepository(db, cfg.DB.Timeout)
		stats := repository.NewStatisticsRepository(db, cfg.DB.Timeout)

		codec := session.NewCodec(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL)
		throttle := service.NewLoginThrottle(rdb, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginLockWindow)
		authService, err := service.NewAuthService(users, shifts, codec, throttle, cfg.Auth.BcryptCost)
		if err != nil {
			return err
		}

		handler := api.NewHandler(
			authService,
			service.NewPaymentService(orders, pub),
			service.NewOrderService(orders),
			service.NewStatisticsService(stats),
			api.CookieConfig{TTL: cfg.Auth.SessionTTL, Secure: cfg.Auth.CookieSecure},
		)
		e := api.NewRouter(handler, codec, cfg.HTTP)

		errCh := make(chan error, 1)
		go func() {
			log.Info().Str("port", cfg.HTTPPort).Msg("cashier-service listening")
			if err := e.Start(":" + cfg.HTTPPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
}

func parseIDs(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("empty list")
	}
	var ids []int
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
