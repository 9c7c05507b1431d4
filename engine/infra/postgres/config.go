package postgres

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds PostgreSQL connection settings for the driver.
// Prefer providing a DSN via ConnString. When empty, a DSN will be
// synthesized from the individual fields.
type Config struct {
	ConnString string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SSLMode    string

	// AdminDBName is the maintenance database used for CREATE/DROP
	// DATABASE statements. Defaults to "postgres".
	AdminDBName string

	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	HealthCheckPeriod  time.Duration
	ConnectTimeout     time.Duration
	PingTimeout        time.Duration
	HealthCheckTimeout time.Duration
}

// DSN returns the connection string for the configured database.
func (c *Config) DSN() string {
	if c.ConnString != "" {
		return c.ConnString
	}
	return c.dsnFor(c.DBName)
}

// AdminDSN returns the connection string for the maintenance database,
// used when creating or dropping the target database.
func (c *Config) AdminDSN() string {
	name := c.AdminDBName
	if name == "" {
		name = "postgres"
	}
	return c.dsnFor(name)
}

func (c *Config) dsnFor(dbName string) string {
	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%s", c.Host, c.Port),
		Path:   "/" + dbName,
	}
	if c.SSLMode != "" {
		q := url.Values{}
		q.Set("sslmode", c.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String()
}
