package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/valyala/fasthttp"

	"github.com/ruizlenato/tunefetch/internal/localization"
)

const RequestIDKey = "request_id"

var ErrInvalidJSON = errors.New("invalid JSON body")

// I18n returns the message lookup for the languages accepted by the client.
func I18n(ctx *fasthttp.RequestCtx) func(string) string {
	return localization.Get(string(ctx.Request.Header.Peek(fasthttp.HeaderAcceptLanguage)))
}

// RequestID returns the id assigned to the request by the server middleware.
func RequestID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue(RequestIDKey).(string)
	return id
}

// DecodeJSON decodes the request body into dest.
func DecodeJSON(ctx *fasthttp.RequestCtx, dest any) error {
	if err := json.Unmarshal(ctx.PostBody(), dest); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	return nil
}

func WriteJSON(ctx *fasthttp.RequestCtx, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		slog.Error("Could not marshal response",
			"request_id", RequestID(ctx),
			"error", err.Error())
		ctx.Error(fasthttp.StatusMessage(fasthttp.StatusInternalServerError), fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(data)
}

func WriteError(ctx *fasthttp.RequestCtx, status int, message string) {
	WriteJSON(ctx, status, map[string]string{"error": message})
}

// WriteDetail answers with a validation error.
func WriteDetail(ctx *fasthttp.RequestCtx, status int, detail string) {
	WriteJSON(ctx, status, map[string]string{"detail": detail})
}
