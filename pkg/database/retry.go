package database

import (
	"context"
	"database/sql/driver"
	"math/rand"
	"strings"
	"time"
)

const (
	retryBaseDelay = 50 * time.Millisecond
	retryMaxDelay  = 2 * time.Second
)

// busyRetryConnector hands out connections whose exec, query and begin calls
// are retried with backoff while SQLite reports the database as busy.
type busyRetryConnector struct {
	driver.Connector
	maxRetries int
}

func (rc *busyRetryConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := rc.Connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return &busyRetryConn{Conn: conn, maxRetries: rc.maxRetries}, nil
}

// busyRetryConn only overrides the context-aware entry points; database/sql
// prefers them whenever the wrapped driver implements them, which the
// sqlite drivers do.
type busyRetryConn struct {
	driver.Conn
	maxRetries int
}

func (c *busyRetryConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	beginner, ok := c.Conn.(driver.ConnBeginTx)
	if !ok {
		return c.Conn.Begin() //nolint:staticcheck // fallback for drivers without BeginTx
	}
	var tx driver.Tx
	err := retryBusy(ctx, c.maxRetries, func() (err error) {
		tx, err = beginner.BeginTx(ctx, opts)
		return err
	})
	return tx, err
}

func (c *busyRetryConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if preparer, ok := c.Conn.(driver.ConnPrepareContext); ok {
		return preparer.PrepareContext(ctx, query)
	}
	return c.Conn.Prepare(query)
}

func (c *busyRetryConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	execer, ok := c.Conn.(driver.ExecerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	var result driver.Result
	err := retryBusy(ctx, c.maxRetries, func() (err error) {
		result, err = execer.ExecContext(ctx, query, args)
		return err
	})
	return result, err
}

func (c *busyRetryConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	queryer, ok := c.Conn.(driver.QueryerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	var rows driver.Rows
	err := retryBusy(ctx, c.maxRetries, func() (err error) {
		rows, err = queryer.QueryContext(ctx, query, args)
		return err
	})
	return rows, err
}

func (c *busyRetryConn) Ping(ctx context.Context) error {
	if pinger, ok := c.Conn.(driver.Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}

func (c *busyRetryConn) ResetSession(ctx context.Context) error {
	if resetter, ok := c.Conn.(driver.SessionResetter); ok {
		return resetter.ResetSession(ctx)
	}
	return nil
}

func (c *busyRetryConn) IsValid() bool {
	if validator, ok := c.Conn.(driver.Validator); ok {
		return validator.IsValid()
	}
	return true
}

func (c *busyRetryConn) CheckNamedValue(nv *driver.NamedValue) error {
	if checker, ok := c.Conn.(driver.NamedValueChecker); ok {
		return checker.CheckNamedValue(nv)
	}
	return driver.ErrSkip
}

// isBusyError reports whether err is SQLite's BUSY or LOCKED condition, for
// both the mattn and modernc drivers.
func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "SQLITE_LOCKED") ||
		strings.Contains(msg, "(5)") ||
		strings.Contains(msg, "(6)")
}

func retryBusy(ctx context.Context, maxRetries int, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !isBusyError(err) || attempt >= maxRetries {
			return err
		}

		delay := retryBaseDelay << attempt
		delay += time.Duration(rand.Int63n(int64(delay/4) + 1))
		if delay > retryMaxDelay {
			delay = retryMaxDelay
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
