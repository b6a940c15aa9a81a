package relay

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func newUpstream(t *testing.T, handler fasthttp.RequestHandler) *Relay {
	t.Helper()

	ln := fasthttputil.NewInmemoryListener()
	server := &fasthttp.Server{Handler: handler}
	go server.Serve(ln) //nolint:errcheck
	t.Cleanup(func() {
		server.Shutdown() //nolint:errcheck
	})

	return New(WithClient(&fasthttp.Client{
		Dial: func(string) (net.Conn, error) { return ln.Dial() },
	}))
}

func pattern(chunks, size int) []byte {
	body := make([]byte, chunks*size)
	for i := range body {
		body[i] = byte(i / size)
	}
	return body
}

func TestStreamYieldsChunksInOrder(t *testing.T) {
	body := pattern(5, DefaultChunkSize)
	relay := newUpstream(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetContentType("audio/webm")
		ctx.SetBody(body)
	})

	stream, err := relay.Open(context.Background(), "http://upstream/audio")
	require.NoError(t, err)
	assert.Equal(t, "audio/webm", stream.ContentType())

	var (
		got   [][]byte
		first *byte
	)
	for chunk, err := range stream.Chunks() {
		require.NoError(t, err)
		if first == nil {
			first = &chunk[0]
		}
		assert.Same(t, first, &chunk[0], "chunks must reuse a single buffer")
		got = append(got, bytes.Clone(chunk))
	}

	require.Len(t, got, 5)
	for i, chunk := range got {
		assert.Equal(t, body[i*DefaultChunkSize:(i+1)*DefaultChunkSize], chunk)
	}
	assert.True(t, stream.closed)
}

func TestStreamShortLastChunk(t *testing.T) {
	body := append(pattern(2, 4), 'x', 'y')
	relay := newUpstream(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBody(body)
	})
	relay.chunkSize = 4

	var got [][]byte
	for chunk, err := range relay.Chunks(context.Background(), "http://upstream/audio") {
		require.NoError(t, err)
		got = append(got, bytes.Clone(chunk))
	}

	assert.Equal(t, [][]byte{body[0:4], body[4:8], []byte("xy")}, got)
}

func TestStreamChunkedUpstream(t *testing.T) {
	relay := newUpstream(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
			for i := range 3 {
				w.Write(bytes.Repeat([]byte{byte('a' + i)}, DefaultChunkSize)) //nolint:errcheck
				w.Flush()                                                    //nolint:errcheck
			}
		})
	})

	var got []byte
	count := 0
	for chunk, err := range relay.Chunks(context.Background(), "http://upstream/audio") {
		require.NoError(t, err)
		assert.Len(t, chunk, DefaultChunkSize)
		got = append(got, chunk...)
		count++
	}

	assert.Equal(t, 3, count)
	assert.Equal(t, byte('c'), got[len(got)-1])
}

func TestOpenFailsOnErrorStatus(t *testing.T) {
	relay := newUpstream(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusForbidden)
		ctx.SetBodyString("denied")
	})

	stream, err := relay.Open(context.Background(), "http://upstream/audio")
	assert.Nil(t, stream)
	assert.ErrorIs(t, err, ErrUpstreamStatus)
	assert.Contains(t, err.Error(), "403")

	chunks := 0
	var seqErr error
	for chunk, err := range relay.Chunks(context.Background(), "http://upstream/audio") {
		if chunk != nil {
			chunks++
		}
		seqErr = err
	}
	assert.Zero(t, chunks)
	assert.ErrorIs(t, seqErr, ErrUpstreamStatus)
}

func TestOpenFollowsRedirects(t *testing.T) {
	relay := newUpstream(t, func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) == "/moved" {
			ctx.Redirect("/audio", fasthttp.StatusFound)
			return
		}
		ctx.SetBodyString("payload")
	})

	var got []byte
	for chunk, err := range relay.Chunks(context.Background(), "http://upstream/moved") {
		require.NoError(t, err)
		got = append(got, chunk...)
	}
	assert.Equal(t, "payload", string(got))
}

func TestEarlyBreakReleasesStream(t *testing.T) {
	body := pattern(50, DefaultChunkSize)
	relay := newUpstream(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBody(body)
	})

	stream, err := relay.Open(context.Background(), "http://upstream/audio")
	require.NoError(t, err)

	read := 0
	for _, err := range stream.Chunks() {
		require.NoError(t, err)
		read++
		if read == 2 {
			break
		}
	}

	assert.Equal(t, 2, read)
	assert.True(t, stream.closed)
	assert.NoError(t, stream.Close())
}

func TestStreamIsOneShot(t *testing.T) {
	relay := newUpstream(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString("once")
	})

	stream, err := relay.Open(context.Background(), "http://upstream/audio")
	require.NoError(t, err)

	for _, err := range stream.Chunks() {
		require.NoError(t, err)
	}

	var second []error
	for chunk, err := range stream.Chunks() {
		assert.Nil(t, chunk)
		second = append(second, err)
	}
	require.Len(t, second, 1)
	assert.ErrorIs(t, second[0], ErrConsumed)
}

func TestStreamStopsOnCancelledContext(t *testing.T) {
	relay := newUpstream(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBody(pattern(10, DefaultChunkSize))
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream, err := relay.Open(ctx, "http://upstream/audio")
	require.NoError(t, err)

	var lastErr error
	read := 0
	for chunk, err := range stream.Chunks() {
		if err != nil {
			lastErr = err
			break
		}
		if chunk != nil {
			read++
			cancel()
		}
	}

	assert.Equal(t, 1, read)
	assert.ErrorIs(t, lastErr, context.Canceled)
	assert.True(t, stream.closed)
}

func TestOpenWithCancelledContext(t *testing.T) {
	relay := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := relay.Open(ctx, "http://upstream/audio")
	assert.ErrorIs(t, err, context.Canceled)
}
