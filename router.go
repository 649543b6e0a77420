package main

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
)

const (
	echoPrefix   = "/echo/"
	notFoundBody = "Not Found"
)

// Router maps a request to a response. Apart from file store side effects
// it depends on nothing but its inputs.
type Router struct {
	greeting string
	store    FileStore
}

func NewRouter(greeting string, store FileStore) *Router {
	return &Router{greeting: greeting, store: store}
}

// Dispatch always returns a response; a request no route accepts gets 404.
// File store failures are logged through the logger carried by ctx.
func (rt *Router) Dispatch(ctx context.Context, req *Request) *Response {
	var res *Response
	switch req.Method {
	case "GET":
		res = rt.get(ctx, req)
	case "POST":
		res = rt.post(ctx, req)
	default:
		res = notFound()
	}
	res.setContentLength()
	return res
}

func (rt *Router) get(ctx context.Context, req *Request) *Response {
	switch {
	case req.Path == "/":
		return textResponse(StatusOK, rt.greeting)
	case strings.HasPrefix(req.Path, echoPrefix):
		return textResponse(StatusOK, strings.TrimPrefix(req.Path, echoPrefix))
	}
	if value, ok := reflectedHeader(req); ok {
		return textResponse(StatusOK, value)
	}
	return rt.readFile(ctx, strings.TrimPrefix(req.Path, "/"))
}

func (rt *Router) post(ctx context.Context, req *Request) *Response {
	name := strings.TrimPrefix(req.Path, "/")
	body := req.Body
	if body == nil {
		body = []byte{}
	}
	// The client hears 201 whether or not the write landed.
	if err := rt.store.Put(name, body); err != nil {
		logStoreError(ctx, err, name, "file write failed")
	}
	return NewResponse(StatusCreated)
}

func (rt *Router) readFile(ctx context.Context, name string) *Response {
	data, err := rt.store.Get(name)
	if err != nil {
		if !errors.Is(err, ErrFileNotFound) {
			logStoreError(ctx, err, name, "file read failed")
		}
		return notFound()
	}
	res := NewResponse(StatusOK)
	res.Headers["Content-Type"] = contentTypeBinary
	res.Body = data
	return res
}

func logStoreError(ctx context.Context, err error, name, msg string) {
	log := zerolog.Ctx(ctx)
	ev := log.Error()
	if errors.Is(err, ErrPathEscapesRoot) {
		ev = log.Warn()
	}
	ev.Err(err).Str("file", name).Msg(msg)
}

func notFound() *Response {
	return textResponse(StatusNotFound, notFoundBody)
}

// reflectedHeader serves GET /User-Agent and friends. The path must already
// be in title case and the header must have been sent under exactly that
// name.
func reflectedHeader(req *Request) (string, bool) {
	name := strings.TrimPrefix(req.Path, "/")
	if name == "" || req.Path != "/"+titleCase(name) {
		return "", false
	}
	value, ok := req.Headers[name]
	return value, ok
}

// titleCase upper-cases every letter that follows a non-letter and
// lower-cases the rest, so "user-agent" becomes "User-Agent".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if prevLetter {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(unicode.ToUpper(r))
		}
		prevLetter = unicode.IsLetter(r)
	}
	return b.String()
}
