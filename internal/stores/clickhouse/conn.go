package clickhouse

import (
	"context"
	"fmt"
	"time"

	"ammindexer/internal/config"

	ch "github.com/ClickHouse/clickhouse-go/v2"
)

type Conn struct {
	Native ch.Conn
}

func New(ctx context.Context, cfg *config.ClickHouseConfig) (*Conn, error) {
	if cfg == nil {
		return nil, fmt.Errorf("clickhouse config cannot be nil")
	}
	opts, err := ch.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed parse DSN ch, error=%w", err)
	}

	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}

	if opts.Compression == nil {
		opts.Compression = &ch.Compression{Method: ch.CompressionLZ4}
	}

	opts.ClientInfo = ch.ClientInfo{
		Products: []struct{ Name, Version string }{
			{
				Name:    "ammindexer",
				Version: "0.1.0",
			},
		},
	}

	conn, err := ch.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed Open ch, error=%w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err = conn.Ping(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed ping ch, error=%w", err)
	}

	return &Conn{Native: conn}, nil
}

// Migrate creates the history tables if absent.
func (c *Conn) Migrate(ctx context.Context) error {
	for _, t := range tables {
		if err := c.Native.Exec(ctx, t.ddl()); err != nil {
			return fmt.Errorf("failed create table %s: %w", t.name, err)
		}
	}
	return nil
}

// Insert sends rows of one table as a single native batch.
func (c *Conn) Insert(ctx context.Context, table string, rows []Row) error {
	t, ok := tableByName(table)
	if !ok {
		return fmt.Errorf("unknown table %s", table)
	}

	batch, err := c.Native.PrepareBatch(ctx, t.insert())
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i := range rows {
		if err = batch.Append(rows[i].Values...); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append row %d: %w", i, err)
		}
	}

	return batch.Send()
}

func (c *Conn) Health(ctx context.Context) error {
	return c.Native.Ping(ctx)
}

func (c *Conn) Close() error {
	return c.Native.Close()
}
