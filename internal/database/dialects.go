package database

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// dialect knows how to turn a Config into a gorm dialector for one database family.
type dialect struct {
	name     string
	buildDSN func(Config) (string, error)
	open     func(dsn string) gorm.Dialector
}

var dialects = map[string]dialect{
	"sqlite":     {name: "sqlite", buildDSN: sqliteDSN, open: sqlite.Open},
	"sqlite3":    {name: "sqlite", buildDSN: sqliteDSN, open: sqlite.Open},
	"postgres":   {name: "postgres", buildDSN: postgresDSN, open: postgres.Open},
	"postgresql": {name: "postgres", buildDSN: postgresDSN, open: postgres.Open},
	"pg":         {name: "postgres", buildDSN: postgresDSN, open: postgres.Open},
	"mysql":      {name: "mysql", buildDSN: mysqlDSN, open: mysql.Open},
	"mariadb":    {name: "mysql", buildDSN: mysqlDSN, open: mysql.Open},
}

func lookupDialect(driver string) (dialect, error) {
	key := strings.ToLower(strings.TrimSpace(driver))
	if key == "" {
		key = "sqlite"
	}
	d, ok := dialects[key]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
	return d, nil
}

// MemoryDSN names a private shared-cache sqlite database so each caller gets a clean store.
func MemoryDSN(name string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name)
}

func sqliteDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	path := strings.TrimSpace(cfg.Path)
	if path == "" || strings.EqualFold(path, ":memory:") {
		return MemoryDSN("attendance"), nil
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("sqlite: create data dir: %w", err)
		}
	}
	query := url.Values{}
	query.Set("_foreign_keys", "1")
	query.Set("_journal_mode", "WAL")
	query.Set("_busy_timeout", "5000")
	return "file:" + filepath.ToSlash(path) + "?" + query.Encode(), nil
}

// postgresDSN renders a connection URL; pgx accepts both URL and key/value forms.
func postgresDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if err := requireCredentials("postgres", cfg); err != nil {
		return "", err
	}

	query := url.Values{}
	query.Set("sslmode", "disable")
	query.Set("application_name", "attendance")
	for key, value := range cfg.Options {
		query.Set(key, value)
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     hostPort(cfg, "localhost", 5432),
		Path:     "/" + cfg.Name,
		RawQuery: query.Encode(),
	}
	if cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	} else {
		u.User = url.User(cfg.User)
	}
	return u.String(), nil
}

func mysqlDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if err := requireCredentials("mysql", cfg); err != nil {
		return "", err
	}

	mc := mysqldriver.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = hostPort(cfg, "127.0.0.1", 3306)
	mc.DBName = cfg.Name
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4"}
	for key, value := range cfg.Options {
		mc.Params[key] = value
	}
	return mc.FormatDSN(), nil
}

func requireCredentials(driver string, cfg Config) error {
	if cfg.User == "" || cfg.Name == "" {
		return errors.New(driver + " configuration requires user and database name")
	}
	return nil
}

func hostPort(cfg Config, defaultHost string, defaultPort int) string {
	host := cfg.Host
	if host == "" {
		host = defaultHost
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
