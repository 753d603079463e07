package mgo

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Config for the mongo connection.
type Config struct {
	Uri         string
	Database    string
	Username    string
	Password    string
	MaxPoolSize uint64
}

type Manager struct {
	mu        sync.RWMutex
	db        *mongo.Database
	readyCh   chan struct{} // closed once, on first successful connect
	readyOnce sync.Once

	lastErr atomic.Value // error
}

var globalMgr = &Manager{readyCh: make(chan struct{})}

func GlobalManager() *Manager { return globalMgr }

// StartAsync runs until ctx is done; closes readyCh on the first successful
// connect and reconnects with backoff on failure.
func StartAsync(ctx context.Context, cfg *Config) {
	go globalMgr.run(ctx, cfg)
}

func (m *Manager) run(ctx context.Context, cfg *Config) {
	const (
		baseBackoff = 200 * time.Millisecond
		maxBackoff  = 5 * time.Second
		healthEvery = 10 * time.Second
		failThresh  = 3
	)

	for {
		// connect phase, with backoff
		attempt := 0
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			db, err := connect(ctx, cfg)
			if err == nil {
				m.mu.Lock()
				m.db = db
				m.mu.Unlock()
				m.readyOnce.Do(func() { close(m.readyCh) })
				break
			}
			m.lastErr.Store(err)

			backoff := baseBackoff << attempt
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			jitter := time.Duration(rand.Int63n(int64(backoff/5) + 1))
			timer := time.NewTimer(backoff - jitter/2)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			if attempt < 6 {
				attempt++
			}
		}

		// health phase; a run of failed pings drops back to the connect phase
		fail := 0
		ticker := time.NewTicker(healthEvery)
		lost := false
		for !lost {
			select {
			case <-ctx.Done():
				ticker.Stop()
				m.mu.Lock()
				if m.db != nil {
					_ = m.db.Client().Disconnect(context.Background())
					m.db = nil
				}
				m.mu.Unlock()
				return
			case <-ticker.C:
				pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				err := m.ping(pingCtx)
				cancel()
				if err != nil {
					fail++
					if fail >= failThresh {
						m.mu.Lock()
						if m.db != nil {
							_ = m.db.Client().Disconnect(context.Background())
							m.db = nil
						}
						m.mu.Unlock()
						lost = true
					}
				} else {
					fail = 0
				}
			}
		}
		ticker.Stop()
	}
}

func connect(ctx context.Context, cfg *Config) (*mongo.Database, error) {
	opts := options.Client().ApplyURI(cfg.Uri)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.Username != "" {
		opts.SetAuth(options.Credential{Username: cfg.Username, Password: cfg.Password})
	}
	connCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	cli, err := mongo.Connect(connCtx, opts)
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(connCtx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}
	return cli.Database(cfg.Database), nil
}

func (m *Manager) ping(ctx context.Context) error {
	m.mu.RLock()
	db := m.db
	m.mu.RUnlock()
	if db == nil {
		return fmt.Errorf("mongo not connected")
	}
	return db.Client().Ping(ctx, readpref.Primary())
}

// WaitReady blocks until the first connect or ctx cancellation.
func WaitReady(ctx context.Context, m *Manager) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-m.readyCh:
		return nil
	}
}

// GetDB returns the live database handle; nil before first connect.
func GetDB() *mongo.Database {
	globalMgr.mu.RLock()
	defer globalMgr.mu.RUnlock()
	return globalMgr.db
}
