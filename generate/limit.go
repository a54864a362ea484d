package generate

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"
)

// Limited spaces calls to the wrapped generator.
type Limited struct {
	next    Generator
	limiter *rate.Limiter
}

var _ Generator = (*Limited)(nil)

// NewLimited allows perMinute requests per minute with a burst of one.
// perMinute <= 0 disables limiting.
func NewLimited(next Generator, perMinute int) *Limited {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return &Limited{next: next, limiter: rate.NewLimiter(limit, 1)}
}

func (l *Limited) Generate(ctx context.Context, messages []Message, params Params) (*Response, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "wait for generation slot")
	}
	return l.next.Generate(ctx, messages, params)
}
