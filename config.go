package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Directory       string
	Host            string
	Port            int
	Greeting        string
	ReadBufferSize  int
	MaxRequestBytes int
	SingleRead      bool
	MaxConns        int           // 0 means unbounded
	ReadTimeout     time.Duration // 0 means no timeout
	LogLevel        string
	LogFormat       string
}

func DefaultConfig() Config {
	return Config{
		Directory:       ".",
		Host:            "0.0.0.0",
		Port:            4221,
		Greeting:        "Home page",
		ReadBufferSize:  1024,
		MaxRequestBytes: 1 << 20,
		LogLevel:        "info",
		LogFormat:       "console",
	}
}

func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Directory, "directory", c.Directory, "directory to serve files from")
	fs.StringVar(&c.Host, "host", c.Host, "address to listen on")
	fs.IntVar(&c.Port, "port", c.Port, "port number")
	fs.StringVar(&c.Greeting, "greeting", c.Greeting, "body returned for GET /")
	fs.IntVar(&c.ReadBufferSize, "read-buffer", c.ReadBufferSize, "bytes requested per socket read")
	fs.IntVar(&c.MaxRequestBytes, "max-request-bytes", c.MaxRequestBytes, "largest request that will be buffered")
	fs.BoolVar(&c.SingleRead, "single-read", c.SingleRead, "read each request with one bounded read")
	fs.IntVar(&c.MaxConns, "max-conns", c.MaxConns, "connections served at once, 0 for no limit")
	fs.DurationVar(&c.ReadTimeout, "read-timeout", c.ReadTimeout, "per-connection read timeout, 0 for none")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "trace, debug, info, warn or error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "console or json")
}

func (c *Config) Validate() error {
	info, err := os.Stat(c.Directory)
	if err != nil {
		return fmt.Errorf("%w: directory: %v", ErrInvalidConfig, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %q is not a directory", ErrInvalidConfig, c.Directory)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.ReadBufferSize <= 0 {
		return fmt.Errorf("%w: read-buffer must be positive", ErrInvalidConfig)
	}
	if c.MaxRequestBytes < c.ReadBufferSize {
		return fmt.Errorf("%w: max-request-bytes %d is below read-buffer %d",
			ErrInvalidConfig, c.MaxRequestBytes, c.ReadBufferSize)
	}
	if c.MaxConns < 0 {
		return fmt.Errorf("%w: max-conns must not be negative", ErrInvalidConfig)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("%w: read-timeout must not be negative", ErrInvalidConfig)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log-level: %v", ErrInvalidConfig, err)
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("%w: unknown log-format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
