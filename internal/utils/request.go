package utils

import (
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpproxy"
)

type FastHTTPCaller struct {
	Client *fasthttp.Client
}

var DefaultFastHTTPCaller = &FastHTTPCaller{
	Client: &fasthttp.Client{
		ReadBufferSize:  16 * 1024,
		MaxConnsPerHost: 1024,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
	},
}

type RequestParams struct {
	Method    string            // only "GET" and "OPTIONS" are supported
	Redirects int               // Number of redirects to follow
	Headers   map[string]string // Request headers
	Query     map[string]string // Query parameters
}

// Call sends the request and returns both pooled objects. The caller owns
// them and must hand them back with ReleaseRequestResources.
func (a FastHTTPCaller) Call(url string, params RequestParams) (*fasthttp.Request, *fasthttp.Response, error) {
	method := params.Method
	if method == "" {
		method = fasthttp.MethodGet
	}

	switch method {
	case fasthttp.MethodGet, fasthttp.MethodOptions:
	default:
		return nil, nil, fmt.Errorf("unsupported method: %s", method)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()

	req.Header.SetMethod(method)
	for key, value := range params.Headers {
		req.Header.Set(key, value)
	}

	req.SetRequestURI(url)
	for key, value := range params.Query {
		req.URI().QueryArgs().Add(key, value)
	}

	var err error
	if params.Redirects > 0 {
		err = a.Client.DoRedirects(req, resp, params.Redirects)
	} else {
		err = a.Client.Do(req, resp)
	}

	if err != nil {
		ReleaseRequestResources(req, resp)
		return nil, nil, fmt.Errorf("request error: %w", err)
	}

	return req, resp, nil
}

// UseSocks5Proxy routes every request of the caller through the given proxy.
func (a *FastHTTPCaller) UseSocks5Proxy(proxy string) {
	if proxy == "" {
		return
	}
	a.Client.Dial = fasthttpproxy.FasthttpSocksDialer(proxy)
}

func ReleaseRequestResources(request *fasthttp.Request, response *fasthttp.Response) {
	if request != nil {
		defer fasthttp.ReleaseRequest(request)
	}
	if response != nil {
		defer fasthttp.ReleaseResponse(response)
	}
}
