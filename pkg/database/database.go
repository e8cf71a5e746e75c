package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"time"

	"github.com/Seg0r/MuShee-sub000/pkg/config"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// logQueryHook logs every query with its duration. It is only installed when
// the database is opened in debug mode.
type logQueryHook struct {
	debug func(message string, fields ...logger.Data)
}

func (*logQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (qh *logQueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	qh.debug(event.Query, logger.Data{"duration_ms": time.Since(event.StartTime).Milliseconds()})
}

// dsnConnector adapts a driver without OpenConnector to driver.Connector.
type dsnConnector struct {
	dsn string
	drv driver.Driver
}

func (c *dsnConnector) Connect(_ context.Context) (driver.Conn, error) {
	return c.drv.Open(c.dsn)
}

func (c *dsnConnector) Driver() driver.Driver {
	return c.drv
}

func openConnector(drv driver.Driver, dsn string) (driver.Connector, error) {
	if drvCtx, ok := drv.(driver.DriverContext); ok {
		connector, err := drvCtx.OpenConnector(dsn)
		return connector, errors.WithStack(err)
	}
	return &dsnConnector{dsn: dsn, drv: drv}, nil
}

func New(cfg *config.Config) (*bun.DB, error) {
	connector, err := openConnector(sqliteshim.Driver(), cfg.DatabaseFilePath)
	if err != nil {
		return nil, err
	}

	sqldb := sql.OpenDB(&busyRetryConnector{Connector: connector, maxRetries: cfg.DatabaseMaxRetries})
	// SQLite allows a single writer; funnelling everything through one
	// connection avoids SQLITE_BUSY under concurrent uploads.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if cfg.DatabaseDebug {
		db.AddQueryHook(&logQueryHook{debug: logger.NewWithLevel("debug").Debug})
	}

	for i := 0; i < cfg.DatabaseConnectRetryCount; i++ {
		_, err = db.Exec("SELECT 1")
		if err != nil {
			time.Sleep(cfg.DatabaseConnectRetryDelay)
			continue
		}
		break
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}

	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		return nil, errors.Wrap(err, "failed to enable WAL mode")
	}

	_, err = db.Exec("PRAGMA foreign_keys=ON")
	if err != nil {
		return nil, errors.Wrap(err, "failed to enable foreign keys")
	}

	_, err = db.Exec("PRAGMA busy_timeout=?", cfg.DatabaseBusyTimeout.Milliseconds())
	if err != nil {
		return nil, errors.Wrap(err, "failed to set busy_timeout")
	}

	return db, nil
}
