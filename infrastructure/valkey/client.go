package valkey

import (
	"context"
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/AzielCF/az-engage/core/config"
	valkeylib "github.com/valkey-io/valkey-go"
)

// DefaultConnectTimeout is the maximum time to wait for the initial ping.
const DefaultConnectTimeout = 5 * time.Second

// Config holds the configuration for creating a Valkey client
type Config struct {
	Address        string
	Password       string
	DB             int
	KeyPrefix      string
	ConnectTimeout time.Duration
}

// FromAppConfig maps the application settings to a client config.
func FromAppConfig(cfg coreconfig.ValkeyConfig) Config {
	return Config{
		Address:   cfg.Address,
		Password:  cfg.Password,
		DB:        cfg.DB,
		KeyPrefix: cfg.KeyPrefix,
	}
}

// Client wraps valkey-go with key prefixing and the few commands we use.
type Client struct {
	inner     valkeylib.Client
	keyPrefix string
}

// NewClient connects and pings. The caller owns Close().
func NewClient(cfg Config) (*Client, error) {
	opts := valkeylib.ClientOption{
		InitAddress: []string{cfg.Address},
		SelectDB:    cfg.DB,
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	inner, err := valkeylib.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = DefaultConnectTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := inner.Do(ctx, inner.B().Ping().Build()).Error(); err != nil {
		inner.Close()
		return nil, fmt.Errorf("failed to ping valkey (timeout: %v): %w", timeout, err)
	}

	prefix := cfg.KeyPrefix
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}

	return &Client{inner: inner, keyPrefix: prefix}, nil
}

// Inner returns the underlying valkey-go client.
func (c *Client) Inner() valkeylib.Client {
	return c.inner
}

func (c *Client) Close() {
	if c.inner != nil {
		c.inner.Close()
	}
}

// Key constructs a prefixed key: Key("blacklist", "acc") -> "engage:blacklist:acc"
func (c *Client) Key(parts ...string) string {
	if len(parts) == 0 {
		return strings.TrimSuffix(c.keyPrefix, ":")
	}
	return c.keyPrefix + strings.Join(parts, ":")
}

// GetBytes returns (nil, nil) when the key does not exist.
func (c *Client) GetBytes(ctx context.Context, key string) ([]byte, error) {
	data, err := c.inner.Do(ctx, c.inner.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		if IsNil(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (c *Client) SetBytes(ctx context.Context, key string, value []byte) error {
	return c.inner.Do(ctx, c.inner.B().Set().Key(key).Value(string(value)).Build()).Error()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.inner.Do(ctx, c.inner.B().Ping().Build()).Error()
}

// IsNil checks if an error returned by the client represents a Valkey NIL response.
func IsNil(err error) bool {
	return valkeylib.IsValkeyNil(err)
}
