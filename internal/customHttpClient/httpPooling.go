package customHttpClient

import (
	"net/http"
	"net/url"

	"github.com/dlemos/cpf-extractor/internal/config"
	"github.com/dlemos/cpf-extractor/pkg/logger_i"
)

//every outbound call (document download, webhook POST) shares one
//pooled transport so connections get reused across jobs

var logger = logger_i.NewLogger("HttpClient")

// NewTransport builds the shared transport. When proxyServer is set all
// network-facing sub-features go through it, with optional credentials.
func NewTransport(proxyServer, proxyUsername, proxyPassword string) *http.Transport {
	transport := &http.Transport{
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
	}

	if proxyServer == "" {
		return transport
	}

	proxyURL, err := url.Parse(proxyServer)
	if err != nil {
		logger.Error("Invalid proxy server address, proxy disabled", "error", err)
		return transport
	}
	if proxyUsername != "" && proxyPassword != "" {
		proxyURL.User = url.UserPassword(proxyUsername, proxyPassword)
	}
	transport.Proxy = http.ProxyURL(proxyURL)
	logger.Info("Using proxy", "server", proxyServer)
	return transport
}
