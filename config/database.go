package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	EngineSQLite   = "sqlite"
	EnginePostgres = "postgres"
)

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// Database is the parsed form of DATABASE_URL.
type Database struct {
	Engine   string
	Name     string
	User     string
	Password string
	Host     string
	Port     int
	// DSN is the data source name handed to the engine's database/sql driver.
	DSN string
}

// InMemory reports whether the database lives only for the process lifetime.
func (d Database) InMemory() bool {
	return d.Engine == EngineSQLite && d.Name == ":memory:"
}

// ParseDatabaseURL understands postgres://, postgresql://, pgsql:// and
// sqlite:// URLs. sqlite:///rel.db is relative, sqlite:////abs.db absolute and
// sqlite://:memory: in memory.
func ParseDatabaseURL(raw string) (Database, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Database{}, fmt.Errorf("database url is empty")
	}

	if rest, ok := strings.CutPrefix(raw, "sqlite://"); ok {
		return parseSQLite(rest), nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Database{}, fmt.Errorf("parse database url: %w", err)
	}

	switch u.Scheme {
	case "postgres", "postgresql", "pgsql":
	default:
		return Database{}, fmt.Errorf("unsupported database scheme %q", u.Scheme)
	}

	db := Database{
		Engine: EnginePostgres,
		Name:   strings.TrimPrefix(u.Path, "/"),
		Host:   u.Hostname(),
	}
	if u.User != nil {
		db.User = u.User.Username()
		db.Password, _ = u.User.Password()
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return Database{}, fmt.Errorf("invalid database port %q", p)
		}
		db.Port = port
	}
	if db.Name == "" {
		return Database{}, fmt.Errorf("database name is missing")
	}

	dsn := *u
	dsn.Scheme = "postgres"
	db.DSN = dsn.String()

	return db, nil
}

func parseSQLite(rest string) Database {
	name := rest
	if name == "" || name == ":memory:" {
		name = ":memory:"
	} else {
		name = strings.TrimPrefix(name, "/")
	}

	return Database{
		Engine: EngineSQLite,
		Name:   name,
		DSN:    name + "?" + sqlitePragmas,
	}
}
