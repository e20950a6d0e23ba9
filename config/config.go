package config

import (
	"io/ioutil"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	DefaultFileName = "compute-divergence.yaml"
	DefaultDriver   = "mysql"
)

// Drivers lists the driver names a connection may use.
var Drivers = []string{"mysql", "postgres", "pgx", "sqlite3", "oracle"}

// Config is the content of the connection file.
type Config struct {
	Source      *Connection  `yaml:"source"`
	Destination *Connection  `yaml:"destination"`
	Tables      TableFilter  `yaml:"tables"`
	Logger      LoggerConfig `yaml:"logger"`
}

// Connection describes one database to compare.
type Connection struct {
	Driver   string            `yaml:"driver" valid:"required,in(mysql|postgres|pgx|sqlite3|oracle)"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Database string            `yaml:"database" valid:"required"`
	User     string            `yaml:"user"`
	Password string            `yaml:"password"`
	Params   map[string]string `yaml:"params"`
}

// TableFilter restricts the tables taking part in a comparison.
type TableFilter struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// LoggerConfig mirrors logging.Config so the file can carry it.
type LoggerConfig struct {
	Level    string `yaml:"level"`
	Store    string `yaml:"store"`
	FileName string `yaml:"file_name"`
	MaxSize  int    `yaml:"max_size"`
	MaxAge   int    `yaml:"max_age"`
	Compress bool   `yaml:"compress"`
	Encoding string `yaml:"encoding" valid:"in(console|json)"`
}

// Load reads a configuration file. Variables from envFile, when it exists,
// are added to the environment (existing variables win) and ${VAR}
// references in connection fields are expanded before validation.
func Load(fileName, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(errors.Cause(err)) {
			return nil, &Error{Field: "env-file", Err: errors.Wrapf(err, "load %s", envFile)}
		}
	}

	data, err := ioutil.ReadFile(fileName)
	if err != nil {
		return nil, &Error{Field: "file", Err: errors.Wrapf(err, "read %s", fileName)}
	}
	return Parse(data)
}

// Parse decodes, expands and validates a configuration document.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, &Error{Field: "file", Err: errors.Wrap(err, "decode yaml")}
	}
	if err := c.check(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) check() error {
	if c.Source == nil {
		return &Error{Field: "source", Err: errors.New("connection is missing")}
	}
	if c.Destination == nil {
		return &Error{Field: "destination", Err: errors.New("connection is missing")}
	}
	if err := c.Source.check("source"); err != nil {
		return err
	}
	if err := c.Destination.check("destination"); err != nil {
		return err
	}
	if _, err := govalidator.ValidateStruct(c.Logger); err != nil {
		return &Error{Field: "logger." + firstField(err), Err: err}
	}
	return nil
}

func (c *Connection) check(name string) error {
	c.expand()
	if c.Driver == "" {
		c.Driver = DefaultDriver
	}
	c.Driver = strings.ToLower(c.Driver)

	if _, err := govalidator.ValidateStruct(c); err != nil {
		return &Error{Field: name + "." + firstField(err), Err: err}
	}
	if c.Driver == "sqlite3" {
		return nil
	}
	if c.Host == "" {
		return &Error{Field: name + ".host", Err: errors.New("host is required")}
	}
	if c.User == "" {
		return &Error{Field: name + ".user", Err: errors.New("user is required")}
	}
	if c.Port < 0 || c.Port > 65535 {
		return &Error{Field: name + ".port", Err: errors.Errorf("port %d out of range", c.Port)}
	}
	if _, _, err := c.hostPort(0); err != nil {
		return &Error{Field: name + ".host", Err: err}
	}
	return nil
}

func (c *Connection) expand() {
	c.Driver = os.ExpandEnv(c.Driver)
	c.Host = os.ExpandEnv(c.Host)
	c.Database = os.ExpandEnv(c.Database)
	c.User = os.ExpandEnv(c.User)
	c.Password = os.ExpandEnv(c.Password)
	for k, v := range c.Params {
		c.Params[k] = os.ExpandEnv(v)
	}
}

// HostPort splits Host into host and port. Port wins over a port written in
// Host, defaultPort is used when neither is set.
func (c *Connection) HostPort(defaultPort int) (string, int) {
	host, port, err := c.hostPort(defaultPort)
	if err != nil {
		return c.Host, defaultPort
	}
	return host, port
}

// Address is HostPort joined as host:port.
func (c *Connection) Address(defaultPort int) string {
	host, port := c.HostPort(defaultPort)
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func (c *Connection) hostPort(defaultPort int) (string, int, error) {
	host, port := c.Host, defaultPort
	if strings.Contains(c.Host, ":") {
		h, p, err := net.SplitHostPort(c.Host)
		if err == nil {
			n, err := strconv.Atoi(p)
			if err != nil {
				return "", 0, errors.Errorf("invalid port in %q", c.Host)
			}
			host, port = h, n
		}
	}
	if c.Port != 0 {
		port = c.Port
	}
	return host, port, nil
}

// Label names the connection in reports.
func (c *Connection) Label() string {
	return c.Database
}

// Keep reports whether a table takes part in the comparison.
func (f TableFilter) Keep(table string) bool {
	for _, name := range f.Exclude {
		if name == table {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, name := range f.Include {
		if name == table {
			return true
		}
	}
	return false
}

// Active reports whether the filter restricts anything.
func (f TableFilter) Active() bool {
	return len(f.Include) > 0 || len(f.Exclude) > 0
}

func firstField(err error) string {
	if errs, ok := err.(govalidator.Errors); ok && len(errs) > 0 {
		return firstField(errs[0])
	}
	if e, ok := err.(govalidator.Error); ok {
		return strings.ToLower(e.Name)
	}
	return "unknown"
}
