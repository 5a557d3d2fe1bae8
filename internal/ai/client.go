package ai

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/net/proxy"
)

const defaultTimeout = 120 * time.Second

type ClientConfig struct {
	APIKey     string
	BaseURL    string
	ProxyAddr  string
	Timeout    time.Duration
	MaxRetries int
}

// NewClient builds the OpenAI client shared by the transcriber, the intent
// extractor and the synthesizer. Traffic goes through a SOCKS5 proxy when
// ProxyAddr is set.
func NewClient(cfg ClientConfig) (openai.Client, error) {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	if cfg.ProxyAddr != "" {
		httpClient, err := NewSocksClient(cfg.ProxyAddr, timeout)
		if err != nil {
			return openai.Client{}, fmt.Errorf("dial socks proxy %s: %w", cfg.ProxyAddr, err)
		}
		opts = append(opts, option.WithHTTPClient(httpClient))
		slog.Debug("openai traffic routed through proxy", "proxy", cfg.ProxyAddr)
	} else {
		opts = append(opts, option.WithHTTPClient(&http.Client{Timeout: timeout}))
	}

	return openai.NewClient(opts...), nil
}

func NewSocksClient(socksAddr string, timeout time.Duration) (*http.Client, error) {
	dialer, err := proxy.SOCKS5("tcp", socksAddr, nil, proxy.Direct)
	if err != nil {
		return nil, err
	}

	dial := func(ctx context.Context, network, addr string) (net.Conn, error) {
		return dialer.Dial(network, addr)
	}
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		dial = cd.DialContext
	}

	return &http.Client{
		Transport: &http.Transport{DialContext: dial},
		Timeout:   timeout,
	}, nil
}
