package pg

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DSN is a parsed PostgreSQL connection URL.
type DSN struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	// Params holds the remaining query parameters.
	Params map[string]string
}

// ParseDSN parses a postgres:// or postgresql:// URL. Port defaults to
// 5432 and sslmode to disable.
func ParseDSN(raw string) (DSN, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return DSN{}, fmt.Errorf("invalid dsn: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return DSN{}, fmt.Errorf("unsupported dsn scheme %q", u.Scheme)
	}

	d := DSN{Host: u.Hostname(), Port: 5432, Params: map[string]string{}}
	if p := u.Port(); p != "" {
		if d.Port, err = strconv.Atoi(p); err != nil {
			return DSN{}, fmt.Errorf("invalid dsn port %q", p)
		}
	}
	if u.User != nil {
		d.User = u.User.Username()
		d.Password, _ = u.User.Password()
	}
	d.Database = strings.TrimPrefix(u.Path, "/")

	q := u.Query()
	d.SSLMode = q.Get("sslmode")
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	for k, v := range q {
		if k != "sslmode" && len(v) > 0 {
			d.Params[k] = v[0]
		}
	}
	return d, nil
}

// Validate checks the fields a submission store needs.
func (d DSN) Validate() error {
	switch {
	case d.Host == "":
		return fmt.Errorf("dsn: host is required")
	case d.Database == "":
		return fmt.Errorf("dsn: database is required")
	case d.Port <= 0 || d.Port > 65535:
		return fmt.Errorf("dsn: port %d out of range", d.Port)
	}
	switch d.SSLMode {
	case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
		return nil
	}
	return fmt.Errorf("dsn: invalid sslmode %q", d.SSLMode)
}

func (d DSN) String() string { return d.build(d.Password) }

// Redacted is safe to log.
func (d DSN) Redacted() string {
	if d.Password == "" {
		return d.build("")
	}
	return d.build("xxxxx")
}

func (d DSN) build(password string) string {
	u := url.URL{Scheme: "postgres", Host: d.Host + ":" + strconv.Itoa(d.Port), Path: "/" + d.Database}
	if d.User != "" {
		if password != "" {
			u.User = url.UserPassword(d.User, password)
		} else {
			u.User = url.User(d.User)
		}
	}
	q := url.Values{"sslmode": {d.SSLMode}}
	for k, v := range d.Params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
