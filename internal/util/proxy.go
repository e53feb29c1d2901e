package util

import (
	"fmt"
	"net/http"
	"net/url"
)

// NewHTTPClient returns an HTTP client whose transport routes through the given
// proxies. Empty values fall back to HTTP_PROXY/HTTPS_PROXY/NO_PROXY.
func NewHTTPClient(httpProxy, httpsProxy string) (*http.Client, error) {
	proxy, err := NewProxyFunc(httpProxy, httpsProxy)
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = proxy

	return &http.Client{Transport: transport}, nil
}

// NewProxyFunc creates a proxy function from explicit proxy URLs.
// Proxy URLs are parsed once, up front.
func NewProxyFunc(httpProxy, httpsProxy string) (func(*http.Request) (*url.URL, error), error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment, nil
	}

	var httpURL, httpsURL *url.URL
	var err error
	if httpProxy != "" {
		if httpURL, err = url.Parse(httpProxy); err != nil {
			return nil, fmt.Errorf("parse http proxy: %w", err)
		}
	}
	if httpsProxy != "" {
		if httpsURL, err = url.Parse(httpsProxy); err != nil {
			return nil, fmt.Errorf("parse https proxy: %w", err)
		}
	}

	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsURL != nil {
			return httpsURL, nil
		}
		if httpURL != nil {
			return httpURL, nil
		}
		return http.ProxyFromEnvironment(req)
	}, nil
}
