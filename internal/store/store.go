package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DaanHessen/pointboard/internal/util"
)

var ErrNoChange = errors.New("no change")

// KV is the key-value capability the board persists through.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Watcher is implemented by backends that can report changes made by other processes.
type Watcher interface {
	Watch(ctx context.Context, key string) (<-chan struct{}, error)
}

// DB wraps gorm.DB as a postgres-backed KV and exposes Close.
type DB struct {
	gorm *gorm.DB
	sql  *sql.DB
}

func (d *DB) Close() error   { return d.sql.Close() }
func (d *DB) Gorm() *gorm.DB { return d.gorm }

// Open connects to DB per config.
func Open(ctx context.Context, cfg util.Config) (*DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("missing DSN")
	}
	gdb, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return nil, wrap(err, "open postgres")
	}
	sdb, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sdb.SetConnMaxLifetime(30 * time.Minute)
	sdb.SetMaxOpenConns(4)
	sdb.SetMaxIdleConns(2)
	if err := sdb.PingContext(ctx); err != nil {
		return nil, wrap(err, "ping postgres")
	}
	return &DB{gorm: gdb, sql: sdb}, nil
}

func (d *DB) Get(ctx context.Context, key string) (string, bool, error) {
	var row struct{ Value string }
	res := d.gorm.WithContext(ctx).Raw(`SELECT value FROM kv_entries WHERE key = ?`, key).Scan(&row)
	if res.Error != nil {
		return "", false, wrap(res.Error, "kv get")
	}
	if res.RowsAffected == 0 {
		return "", false, nil
	}
	return row.Value, true, nil
}

func (d *DB) Set(ctx context.Context, key, value string) error {
	return wrap(d.gorm.WithContext(ctx).Exec(`INSERT INTO kv_entries(key, value, updated_at) VALUES (?,?,now())
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`, key, value).Error, "kv set")
}

// Helper error wrap
func wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}
