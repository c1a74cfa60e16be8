package cracker

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"vigcrack/internal/vigenere"
)

// 每个 goroutine 一次处理的组合数。
const chunkSize = 64

// searchParallel 将组合按枚举顺序切成块，块内由 Workers 个 goroutine 并行验证；
// 块内取序号最小的通过者，结果与顺序搜索一致。
func (c *Cracker) searchParallel(ctx context.Context, msg *vigenere.Message, ranked [][]ShiftCandidate, od *odometer, k int, pass Pass) (*hit, int, bool, error) {
	budget := c.set.MaxAttempts
	blockSize := c.set.Workers * chunkSize
	tried := 0
	for {
		keys := make([][]int, 0, blockSize)
		for len(keys) < blockSize && (budget == 0 || tried+len(keys) < budget) && od.next() {
			key := make([]int, k)
			keyFor(ranked, od.digits, key)
			keys = append(keys, key)
		}
		if len(keys) == 0 {
			capped := budget > 0 && tried >= budget && od.next()
			return nil, tried, capped, nil
		}

		var best atomic.Int64
		best.Store(int64(len(keys)))
		plains := make([]string, len(keys))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.set.Workers)
		for s := 0; s < len(keys); s += chunkSize {
			lo, hi := s, min(s+chunkSize, len(keys))
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				plausible := c.plausible()
				buf := make([]rune, 0, msg.Len())
				for i := lo; i < hi; i++ {
					if int64(i) >= best.Load() {
						return nil
					}
					plain := msg.DecryptIndices(keys[i], buf)
					if !plausible(plain) {
						continue
					}
					plains[i] = plain
					for {
						cur := best.Load()
						if int64(i) >= cur || best.CompareAndSwap(cur, int64(i)) {
							break
						}
					}
					return nil
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, tried, false, err
		}
		if b := int(best.Load()); b < len(keys) {
			return &hit{key: keys[b], plain: plains[b]}, tried + b + 1, false, nil
		}
		tried += len(keys)
		c.obs.Progress(Progress{KeyLength: k, Pass: pass, Attempts: tried})
		if err := ctx.Err(); err != nil {
			return nil, tried, false, err
		}
	}
}
