package middleware

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vango-dev/folio/pkg/auth"
)

// Middleware wraps an auth backend.
type Middleware func(next auth.API) auth.API

// Chain wraps api with mws. The first middleware is the outermost.
func Chain(api auth.API, mws ...Middleware) auth.API {
	for i := len(mws) - 1; i >= 0; i-- {
		api = mws[i](api)
	}
	return api
}

// Funcs adapts a pair of functions to auth.API.
type Funcs struct {
	LoginFunc func(ctx context.Context, identifier, password string) (auth.LoginResult, error)
	ResetFunc func(ctx context.Context, email string) (auth.ResetResult, error)
}

// Login calls LoginFunc.
func (f Funcs) Login(ctx context.Context, identifier, password string) (auth.LoginResult, error) {
	return f.LoginFunc(ctx, identifier, password)
}

// RequestPasswordReset calls ResetFunc.
func (f Funcs) RequestPasswordReset(ctx context.Context, email string) (auth.ResetResult, error) {
	return f.ResetFunc(ctx, email)
}

// Recover turns a panic inside the backend into an error so callers see a
// failed call instead of a crashed goroutine.
func Recover(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next auth.API) auth.API {
		return Funcs{
			LoginFunc: func(ctx context.Context, identifier, password string) (res auth.LoginResult, err error) {
				defer recoverInto(logger, "login", &err)
				return next.Login(ctx, identifier, password)
			},
			ResetFunc: func(ctx context.Context, email string) (res auth.ResetResult, err error) {
				defer recoverInto(logger, "password_reset", &err)
				return next.RequestPasswordReset(ctx, email)
			},
		}
	}
}

func recoverInto(logger *slog.Logger, op string, err *error) {
	if r := recover(); r != nil {
		logger.Error("auth backend panic", "op", op, "panic", r)
		*err = fmt.Errorf("auth backend panic in %s: %v", op, r)
	}
}
