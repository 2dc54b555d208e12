package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukex/instaflow/pkg/dispatcher"
	"github.com/dukex/instaflow/pkg/platform"
	"github.com/dukex/instaflow/pkg/platform/httpcall"
	"github.com/dukex/instaflow/pkg/platform/instagram"
)

// PlatformConfig selects and configures the platform client.
type PlatformConfig struct {
	Name        string // "instagram" or "dry-run"
	GraphAPIURL string
	AccessToken string
	Timeout     time.Duration
	Strict      bool
}

// NewDispatcher builds the action dispatcher over the configured platform client.
func NewDispatcher(logger *slog.Logger, config PlatformConfig) (*dispatcher.Dispatcher, error) {
	var client platform.Client

	httpClient := &http.Client{Timeout: config.Timeout}

	switch config.Name {
	case "instagram", "":
		if config.AccessToken == "" {
			return nil, fmt.Errorf("platform %q requires an access token", "instagram")
		}

		client = instagram.NewClient(logger, config.GraphAPIURL, instagram.StaticToken(config.AccessToken),
			instagram.WithHTTPClient(httpClient))
	case "dry-run":
		client = platform.NewDryRun(logger)
	default:
		return nil, fmt.Errorf("unsupported platform %q", config.Name)
	}

	return dispatcher.NewPlatformDispatcher(logger, client, httpcall.NewCaller(logger, httpClient),
		dispatcher.WithTimeout(config.Timeout),
		dispatcher.WithStrict(config.Strict),
	), nil
}
