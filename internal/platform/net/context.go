// Package net provides utilities for working with request contexts
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const keyOperator ctxKey = "operator"

// WithRequest annotates ctx with a request id readable through chimw.GetReqID
func WithRequest(ctx context.Context, reqID string) context.Context {
	if reqID == "" {
		return ctx
	}
	return context.WithValue(ctx, chimw.RequestIDKey, reqID)
}

// WithOperator annotates ctx with the operator acting through the ops API
func WithOperator(ctx context.Context, operator string) context.Context {
	if operator == "" {
		return ctx
	}
	return context.WithValue(ctx, keyOperator, operator)
}

// RequestID returns the request id on the context if present
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// Operator returns the operator on the context if present
func Operator(ctx context.Context) string {
	v, _ := ctx.Value(keyOperator).(string)
	return v
}
