package collector

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Options configures RunBounded
type Options struct {
	Limit int           // 동시 워커 수 (<=0 이면 1)
	Pace  time.Duration // 워커별 연속 작업 간 최소 간격 (0 이면 제한 없음)
}

// Outcome is one item's result, stored at the item's input index
type Outcome[R any] struct {
	Value R
	Err   error
}

// OK reports whether the unit of work succeeded
func (o Outcome[R]) OK() bool {
	return o.Err == nil
}

// RunBounded applies work to every item with at most opts.Limit in flight
// ⭐ SSOT: 단계별 동시성 제한 실행은 이 함수만 사용
//
// Workers claim items from a shared atomic cursor and write into a
// pre-allocated slice at the claimed index, so the output order always
// matches the input order. A failing or panicking item only affects its own
// Outcome. Once ctx is done, unclaimed items resolve to ctx.Err().
func RunBounded[T, R any](ctx context.Context, items []T, opts Options, work func(ctx context.Context, item T) (R, error)) []Outcome[R] {
	out := make([]Outcome[R], len(items))
	if len(items) == 0 {
		return out
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 1
	}
	if limit > len(items) {
		limit = len(items)
	}

	var cursor atomic.Int64
	var g errgroup.Group

	for w := 0; w < limit; w++ {
		var pacer *rate.Limiter
		if opts.Pace > 0 {
			pacer = rate.NewLimiter(rate.Every(opts.Pace), 1)
		}

		g.Go(func() error {
			for {
				i := int(cursor.Add(1) - 1)
				if i >= len(items) {
					return nil
				}
				if err := ctx.Err(); err != nil {
					out[i].Err = err
					continue
				}
				if pacer != nil {
					if err := pacer.Wait(ctx); err != nil {
						out[i].Err = err
						continue
					}
				}
				out[i] = runOne(ctx, items[i], work)
			}
		})
	}

	// 워커는 에러를 반환하지 않음 (개별 Outcome 에 기록)
	_ = g.Wait()
	return out
}

func runOne[T, R any](ctx context.Context, item T, work func(context.Context, T) (R, error)) (o Outcome[R]) {
	defer func() {
		if r := recover(); r != nil {
			o = Outcome[R]{Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	v, err := work(ctx, item)
	return Outcome[R]{Value: v, Err: err}
}
