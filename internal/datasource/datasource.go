// Package datasource selects the data source implementation named by the
// configuration.
package datasource

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/reports/internal/config"
	"github.com/JonMunkholm/reports/internal/core"
	"github.com/JonMunkholm/reports/internal/datasource/pgsource"
	"github.com/JonMunkholm/reports/internal/datasource/sqlsource"
)

// Drivers accepted in DATASOURCE_DRIVER.
const (
	DriverPgx = "pgx"
	DriverSQL = "sql"
)

// Connector is a core.Connector that owns pooled resources.
type Connector interface {
	core.Connector
	Close() error
}

// Open returns the connector for cfg.Driver.
func Open(cfg config.DataSourceConfig) (Connector, error) {
	switch cfg.Driver {
	case DriverPgx, "":
		return pgConnector{pgsource.NewConnector(pgsource.Config{
			MaxConns:        int32(cfg.MaxConns),
			MinConns:        int32(cfg.MinConns),
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
			ConnectTimeout:  cfg.ConnectTimeout,
		})}, nil
	case DriverSQL:
		return sqlsource.NewConnector(cfg.SQLDriver, sqlsource.Options{
			MaxOpenConns:    cfg.MaxConns,
			ConnMaxLifetime: cfg.MaxConnLifetime,
			ConnMaxIdleTime: cfg.MaxConnIdleTime,
		}), nil
	}
	return nil, fmt.Errorf("unknown data source driver %q", cfg.Driver)
}

// Ping opens a source for locator and releases it, verifying that the
// store is reachable.
func Ping(ctx context.Context, c core.Connector, locator string) error {
	src, err := c.Connect(ctx, locator)
	if err != nil {
		return err
	}
	return src.Close()
}

type pgConnector struct {
	*pgsource.Connector
}

func (p pgConnector) Close() error {
	p.Connector.Close()
	return nil
}
