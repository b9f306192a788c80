// Package commands implements the oktactl subcommands.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/schubergphilis/oktalib-go/pkg/okta"
)

// createClient builds an authenticated session from the resolved
// configuration (flags, OKTA_* environment variables, config file).
func createClient(ctx context.Context) (*okta.Client, error) {
	host := viper.GetString("host")
	if host == "" {
		return nil, fmt.Errorf("no Okta host configured: use --host or OKTA_HOST")
	}
	token := viper.GetString("token")
	if token == "" {
		return nil, fmt.Errorf("no Okta token configured: use --token or OKTA_TOKEN")
	}

	cfg := okta.DefaultConfig(host, token)
	if addr := viper.GetString("redis"); addr != "" {
		cfg.Redis = redis.NewClient(&redis.Options{Addr: addr})
	}

	return okta.New(ctx, cfg)
}

// formatTime renders an optional timestamp for table output.
func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

// truncate shortens long cell values for table output.
func truncate(s string, max int) string {
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
