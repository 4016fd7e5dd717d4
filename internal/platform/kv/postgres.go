package kv

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/logx"
)

const (
	pgEventsChannel = "kv_events"
	// pgNotifyLimit is the largest payload pg_notify accepts, in bytes.
	pgNotifyLimit = 7999
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS kv_entries (
  scope      TEXT        NOT NULL,
  key        TEXT        NOT NULL,
  value      TEXT        NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (scope, key)
)`

// PostgresStore keeps scoped values in a table and relays changes with LISTEN/NOTIFY.
type PostgresStore struct {
	DB  *sql.DB
	dsn string
	hub *hub

	startOnce sync.Once
	listener  *pq.Listener
	stopCh    chan struct{}
}

// NewPostgresStore opens the database (driver "postgres", lib/pq) and ensures the schema.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, pgSchema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &PostgresStore{DB: db, dsn: dsn, hub: newHub(), stopCh: make(chan struct{})}, nil
}

func (s *PostgresStore) Get(ctx context.Context, scope, key string) (string, bool, error) {
	const q = `SELECT value FROM kv_entries WHERE scope = $1 AND key = $2`
	var v string
	err := s.DB.QueryRowContext(ctx, q, scope, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, scope, key, value string) error {
	const q = `
INSERT INTO kv_entries (scope, key, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (scope, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

	payload, err := encodeEvent(scope, key, false)
	if err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, q, scope, key, value); err != nil {
			return err
		}
		return notify(ctx, tx, payload)
	})
}

func (s *PostgresStore) Delete(ctx context.Context, scope string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	const q = `DELETE FROM kv_entries WHERE scope = $1 AND key = ANY($2) RETURNING key`

	return s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, q, scope, pq.Array(keys))
		if err != nil {
			return err
		}
		var removed []string
		for rows.Next() {
			var k string
			if err := rows.Scan(&k); err != nil {
				rows.Close()
				return err
			}
			removed = append(removed, k)
		}
		if err := rows.Close(); err != nil {
			return err
		}
		for _, k := range removed {
			payload, err := encodeEvent(scope, k, true)
			if err != nil {
				return err
			}
			if err := notify(ctx, tx, payload); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *PostgresStore) Subscribe(scope string, fn Listener) (func(), error) {
	s.startOnce.Do(s.startListener)
	return s.hub.subscribe(scope, fn)
}

func (s *PostgresStore) startListener() {
	lg := logx.Component("kv_postgres")

	s.listener = pq.NewListener(s.dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			lg.Warn().Err(err).Int("event", int(ev)).Msg("[kv_postgres] listener event")
		}
	})
	if err := s.listener.Listen(pgEventsChannel); err != nil {
		lg.Error().Err(err).Msg("[kv_postgres] LISTEN failed; change events disabled")
		return
	}

	go func() {
		for {
			select {
			case <-s.stopCh:
				return
			case n, ok := <-s.listener.Notify:
				if !ok {
					return
				}
				// nil after a reconnect; events during the gap are lost
				if n == nil {
					continue
				}
				var ev Event
				if err := json.Unmarshal([]byte(n.Extra), &ev); err != nil {
					lg.Warn().Err(err).Msg("[kv_postgres] bad notification payload")
					continue
				}
				s.hub.publish(ev)
			case <-time.After(90 * time.Second):
				go func() { _ = s.listener.Ping() }()
			}
		}
	}()
}

func (s *PostgresStore) Close() error {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	s.hub.close()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	return s.DB.Close()
}

func (s *PostgresStore) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// notify queues the event on the transaction. An oversized payload is dropped
// so the write itself still commits.
func notify(ctx context.Context, tx *sql.Tx, payload []byte) error {
	if len(payload) > pgNotifyLimit {
		logx.Warn().Str("component", "kv_postgres").Int("bytes", len(payload)).Msg("[kv_postgres] event too large for NOTIFY; dropped")
		return nil
	}
	_, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, pgEventsChannel, string(payload))
	return err
}
