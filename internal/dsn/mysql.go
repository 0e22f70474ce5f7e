// Copyright (c) 2025 SQLPilot
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"net"

	"github.com/go-sql-driver/mysql"
)

// MySQLResolver handles mysql:// URLs.
type MySQLResolver struct {
	url networkURL
}

// NewMySQLResolver creates a MySQLResolver.
func NewMySQLResolver() *MySQLResolver {
	return &MySQLResolver{url: networkURL{typ: MySQL, schemes: []string{"mysql"}, defaultPort: "3306"}}
}

// Parse parses a MySQL URL.
func (r *MySQLResolver) Parse(dsn string) (*Info, error) {
	return r.url.parse(dsn)
}

// DriverDSN renders the user:pass@tcp(host:port)/db form go-sql-driver expects.
func (r *MySQLResolver) DriverDSN(info *Info) (string, error) {
	if info == nil {
		return "", NewParseError("", "nil URL info", "")
	}
	cfg := mysql.NewConfig()
	cfg.User = info.User
	cfg.Passwd = info.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(info.Host, info.Port)
	cfg.DBName = info.Database
	if len(info.Params) > 0 {
		cfg.Params = make(map[string]string, len(info.Params))
		for k, v := range info.Params {
			cfg.Params[k] = v
		}
	}
	return cfg.FormatDSN(), nil
}
