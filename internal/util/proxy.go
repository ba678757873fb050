package util

import (
	"net/http"
	"net/url"

	"golang.org/x/net/http/httpproxy"
)

// NewProxyFunc creates a proxy function for backend and fetch clients.
// Empty settings fall back to HTTP_PROXY, HTTPS_PROXY and NO_PROXY.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	env := httpproxy.FromEnvironment()
	cfg := &httpproxy.Config{
		HTTPProxy:  httpProxy,
		HTTPSProxy: httpsProxy,
		NoProxy:    noProxy,
	}
	if cfg.HTTPSProxy == "" {
		cfg.HTTPSProxy = httpProxy
	}
	if cfg.NoProxy == "" {
		cfg.NoProxy = env.NoProxy
	}

	proxyFor := cfg.ProxyFunc()
	return func(req *http.Request) (*url.URL, error) {
		return proxyFor(req.URL)
	}
}
