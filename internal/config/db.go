package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
)

// DSN builds a MySQL DSN that scans DATETIME columns in the server's local zone.
func (c DBConfig) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%s", c.Host, c.Port)
	cfg.DBName = c.Name
	cfg.ParseTime = true
	cfg.Loc = time.Local
	cfg.Params = map[string]string{"transaction_isolation": "'READ-COMMITTED'"}
	return cfg.FormatDSN()
}

// ConnectDB opens the pool and waits for the server to answer, retrying a few times.
func ConnectDB(ctx context.Context, c DBConfig) (*sql.DB, error) {
	const (
		maxRetries = 10
		retryDelay = 3 * time.Second
	)

	var db *sql.DB
	var err error
	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("mysql", c.DSN())
		if err == nil {
			pctx, cancel := context.WithTimeout(ctx, c.Timeout)
			err = db.PingContext(pctx)
			cancel()
			if err == nil {
				db.SetMaxOpenConns(25)
				db.SetMaxIdleConns(25)
				db.SetConnMaxLifetime(5 * time.Minute)
				log.Info().Str("db", c.Name).Msg("connected to database")
				return db, nil
			}
			_ = db.Close()
		}
		log.Warn().Err(err).Int("attempt", i+1).Str("db", c.Name).Msg("failed to connect to database")

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return nil, fmt.Errorf("connect to DB %s canceled: %w", c.Name, ctx.Err())
		}
	}
	return nil, fmt.Errorf("failed to connect to DB %s at %s:%s after retries: %w", c.Name, c.Host, c.Port, err)
}
