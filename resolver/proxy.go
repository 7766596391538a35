package resolver

import (
	"context"
	"database/sql/driver"
	"io"
)

// proxy forwards every driver call to a driver loaded from a plugin. The
// registry holds the proxy, never the plugin's value directly.
type proxy struct {
	target driver.Driver
}

var (
	_ driver.Driver        = (*proxy)(nil)
	_ driver.DriverContext = (*proxy)(nil)
)

func (p *proxy) Open(name string) (driver.Conn, error) {
	return p.target.Open(name)
}

func (p *proxy) OpenConnector(name string) (driver.Connector, error) {
	if dc, ok := p.target.(driver.DriverContext); ok {
		c, err := dc.OpenConnector(name)
		if err != nil {
			return nil, err
		}
		return &proxyConnector{target: c, drv: p}, nil
	}
	return &dsnConnector{dsn: name, drv: p}, nil
}

// proxyConnector forwards Connect and reports the proxy as its driver.
type proxyConnector struct {
	target driver.Connector
	drv    *proxy
}

func (c *proxyConnector) Connect(ctx context.Context) (driver.Conn, error) {
	return c.target.Connect(ctx)
}

func (c *proxyConnector) Driver() driver.Driver {
	return c.drv
}

// Close lets sql.DB.Close release connectors that hold resources.
func (c *proxyConnector) Close() error {
	if cl, ok := c.target.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}

// dsnConnector adapts a driver without OpenConnector to sql.OpenDB.
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

// connectorFor builds a connector for dsn, preferring the driver's own.
func connectorFor(d driver.Driver, dsn string) (driver.Connector, error) {
	if dc, ok := d.(driver.DriverContext); ok {
		return dc.OpenConnector(dsn)
	}
	return &dsnConnector{dsn: dsn, drv: d}, nil
}
