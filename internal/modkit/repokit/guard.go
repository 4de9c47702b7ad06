package repokit

import (
	"context"
	"fmt"
	"time"
)

type guarder interface {
	Guard(context.Context) error
}

// MustGuard checks every configured backend before a binary starts serving
// and panics when one is unreachable. ctx without a deadline gets 10s
func MustGuard(ctx context.Context, st guarder) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
	}
	if err := st.Guard(ctx); err != nil {
		panic(fmt.Errorf("dependency guard failed: %w", err))
	}
}
