package engine

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// debugLog returns the logger for the debug sink. It admits debug events
// whatever level the engine logger was built with.
func (e *Engine) debugLog() *zerolog.Logger {
	l := e.logger
	if l.GetLevel() > zerolog.DebugLevel {
		l = l.Level(zerolog.DebugLevel)
	}
	return &l
}

func (e *Engine) logRequest(d *descriptor) {
	ev := e.debugLog().Debug().
		Str("method", d.method).
		Str("url", d.url).
		Dict("headers", headerDict(d.headers))
	if len(d.body) > 0 {
		ev = ev.RawJSON("body", d.body)
	}
	ev.Msg("smashsend: request")
}

func (e *Engine) logResponse(r *Response) {
	ev := e.debugLog().Debug().
		Int("status", r.StatusCode).
		Str("request_id", r.RequestID)
	if r.JSON && json.Valid(r.Body) {
		ev = ev.RawJSON("body", r.Body)
	} else {
		ev = ev.Str("body", r.Text())
	}
	ev.Msg("smashsend: response")
}

// headerDict renders headers for the debug sink with the credential masked.
func headerDict(h http.Header) *zerolog.Event {
	dict := zerolog.Dict()
	for k, v := range h {
		value := strings.Join(v, ", ")
		if k == "Authorization" {
			value = redact(value)
		}
		dict = dict.Str(k, value)
	}
	return dict
}

func redact(auth string) string {
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok {
		return "****"
	}
	if len(token) > 4 {
		return scheme + " ****" + token[len(token)-4:]
	}
	return scheme + " ****"
}
