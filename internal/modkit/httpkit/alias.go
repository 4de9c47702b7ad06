// Package httpkit provides handler and routing helpers that alias the platform http package
// use these from modules so they do not import internal/platform/net/http directly
package httpkit

import (
	"net/http"
	"strconv"

	perr "datacompliance/internal/platform/errors"
	phttp "datacompliance/internal/platform/net/http"
	"datacompliance/internal/platform/net/http/bind"
)

type (
	// Response is the HTTP response type
	Response = phttp.Response

	// Handler is the platform handler type
	Handler = phttp.Handler

	// Router is a re-export of the platform router seam
	Router = phttp.Router
)

// OK returns a 200 response
func OK(data any) Response { return phttp.OK(data) }

// Created returns a 201 response
func Created(data any) Response { return phttp.Created(data) }

// Accepted returns a 202 response
func Accepted(data any) Response { return phttp.Accepted(data) }

// NoContent returns a 204 response
func NoContent() Response { return phttp.NoContent() }

// Error returns a response that maps an error to status and envelope
func Error(err error) Response { return phttp.Error(err) }

// JSON binds and validates a request body into T before calling fn
func JSON[T any](fn func(*http.Request, T) Response) Handler {
	return phttp.Handle(func(r *http.Request) Response {
		in, err := bind.ParseJSON[T](r)
		if err != nil {
			return phttp.Error(err)
		}
		return fn(r, in)
	})
}

// JSONWith is JSON with explicit parse options, e.g. a larger body limit
func JSONWith[T any](o bind.JSONOptions, fn func(*http.Request, T) Response) Handler {
	return phttp.Handle(func(r *http.Request) Response {
		in, err := bind.ParseJSON[T](r, o)
		if err != nil {
			return phttp.Error(err)
		}
		return fn(r, in)
	})
}

// Call adapts a handler that takes no JSON body
func Call(fn func(*http.Request) Response) Handler {
	return phttp.Handle(fn)
}

// Param returns a path parameter
func Param(r *http.Request, name string) string { return phttp.URLParam(r, name) }

// ParamValid returns a path parameter after validating it against a validator tag
func ParamValid(r *http.Request, name, tag string) (string, error) {
	v := phttp.URLParam(r, name)
	if err := bind.Var(name, v, tag); err != nil {
		return "", err
	}
	return v, nil
}

// ParamInt64 parses a positive integer path parameter
func ParamInt64(r *http.Request, name string) (int64, error) {
	raw := phttp.URLParam(r, name)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, perr.WithField(perr.InvalidArgf("%s must be a positive integer", name), name)
	}
	return v, nil
}

// QueryInt parses an optional integer query parameter, returning def when absent
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, perr.WithField(perr.InvalidArgf("%s must be a non-negative integer", name), name)
	}
	return v, nil
}
