// Package relay forwards a remote media resource to a consumer in fixed-size
// chunks without buffering the whole body.
package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"sync"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpproxy"
)

const (
	DefaultChunkSize = 1024
	maxRedirects     = 5
	userAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

var (
	ErrUpstreamStatus = errors.New("upstream returned a non-success status")
	ErrConsumed       = errors.New("stream already consumed")
)

type Relay struct {
	client    *fasthttp.Client
	chunkSize int
}

type Option func(*Relay)

func WithChunkSize(size int) Option {
	return func(r *Relay) {
		if size > 0 {
			r.chunkSize = size
		}
	}
}

// WithClient replaces the HTTP client. Streaming of the response body is
// always turned on.
func WithClient(client *fasthttp.Client) Option {
	return func(r *Relay) {
		r.client = client
	}
}

func WithSocks5Proxy(proxy string) Option {
	return func(r *Relay) {
		if proxy != "" {
			r.client.Dial = fasthttpproxy.FasthttpSocksDialer(proxy)
		}
	}
}

func New(opts ...Option) *Relay {
	r := &Relay{
		client: &fasthttp.Client{
			ReadBufferSize:  16 * 1024,
			MaxConnsPerHost: 1024,
		},
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.client.StreamResponseBody = true
	return r
}

// Open starts the GET request against mediaURL and checks the status before
// anything is handed to the caller. The returned Stream must be consumed or
// closed.
func (r *Relay) Open(ctx context.Context, mediaURL string) (*Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	location := mediaURL
	for redirects := 0; ; redirects++ {
		resp, err := r.get(location)
		if err != nil {
			return nil, err
		}

		status := resp.StatusCode()
		if fasthttp.StatusCodeIsRedirect(status) && redirects < maxRedirects {
			next := resp.Header.Peek(fasthttp.HeaderLocation)
			if len(next) > 0 {
				location = resolveLocation(location, next)
				fasthttp.ReleaseResponse(resp)
				continue
			}
		}

		if status < fasthttp.StatusOK || status >= fasthttp.StatusMultipleChoices {
			fasthttp.ReleaseResponse(resp)
			return nil, fmt.Errorf("%w: %d", ErrUpstreamStatus, status)
		}

		body := resp.BodyStream()
		if body == nil {
			body = bytes.NewReader(resp.Body())
		}

		return &Stream{
			ctx:       ctx,
			resp:      resp,
			body:      body,
			chunkSize: r.chunkSize,
		}, nil
	}
}

// Chunks is a shorthand for Open followed by Stream.Chunks. A failing Open
// yields a single error and no chunk.
func (r *Relay) Chunks(ctx context.Context, mediaURL string) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		stream, err := r.Open(ctx, mediaURL)
		if err != nil {
			yield(nil, err)
			return
		}
		for chunk, err := range stream.Chunks() {
			if !yield(chunk, err) {
				return
			}
		}
	}
}

func (r *Relay) get(location string) (*fasthttp.Response, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()

	req.SetRequestURI(location)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderUserAgent, userAgent)

	if err := r.client.Do(req, resp); err != nil {
		fasthttp.ReleaseResponse(resp)
		return nil, fmt.Errorf("relay request error: %w", err)
	}
	return resp, nil
}

func resolveLocation(base string, location []byte) string {
	uri := fasthttp.AcquireURI()
	defer fasthttp.ReleaseURI(uri)

	if err := uri.Parse(nil, []byte(base)); err != nil {
		return string(location)
	}
	uri.UpdateBytes(location)
	return uri.String()
}

// Stream is a single opened upstream response. It can be iterated once.
type Stream struct {
	ctx       context.Context
	resp      *fasthttp.Response
	body      io.Reader
	chunkSize int

	mu       sync.Mutex
	consumed bool
	closed   bool
}

func (s *Stream) ContentType() string {
	return string(s.resp.Header.ContentType())
}

// ContentLength is negative when the upstream did not announce a length.
func (s *Stream) ContentLength() int {
	return s.resp.Header.ContentLength()
}

// Chunks yields the body in chunks of at most the configured size. Every
// chunk but the last one is full. The yielded slice is reused between
// iterations and must not be retained. The upstream connection is released
// when the loop ends, whether by EOF, error or an early break.
func (s *Stream) Chunks() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		if !s.claim() {
			yield(nil, ErrConsumed)
			return
		}
		defer s.Close()

		buf := make([]byte, s.chunkSize)
		for {
			if err := s.ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			n, err := io.ReadFull(s.body, buf)
			if n > 0 && !yield(buf[:n], nil) {
				return
			}

			switch {
			case err == nil:
			case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
				return
			default:
				yield(nil, fmt.Errorf("relay read error: %w", err))
				return
			}
		}
	}
}

func (s *Stream) claim() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.consumed || s.closed {
		return false
	}
	s.consumed = true
	return true
}

// Close releases the upstream response. It is safe to call more than once.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	fasthttp.ReleaseResponse(s.resp)
	return nil
}
