// Package batch decodes independent transmissions concurrently.
package batch

import (
	"context"

	"github.com/danmuck/bitsctl/internal/bits"
	"github.com/danmuck/bitsctl/internal/eval"
	"github.com/danmuck/bitsctl/internal/packet"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome for one transmission. Line is the input index.
type Result struct {
	Line       int
	Input      string
	VersionSum uint64
	Value      int64
	Bits       int
	Packet     packet.Packet
	Err        error
}

// Run decodes and evaluates every input using at most workers goroutines.
// Results keep input order. A failing input does not stop the others; a
// cancelled ctx stops scheduling and marks unscheduled inputs with ctx.Err().
func Run(ctx context.Context, inputs []string, workers int, limits packet.Limits) []Result {
	if workers < 1 {
		workers = 1
	}
	results := make([]Result, len(inputs))
	g := new(errgroup.Group)
	g.SetLimit(workers)

	for i, in := range inputs {
		i, in := i, in
		results[i] = Result{Line: i, Input: in}
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i] = One(i, in, limits)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// One decodes and evaluates a single transmission.
func One(line int, in string, limits packet.Limits) Result {
	res := Result{Line: line, Input: in}
	seq, err := bits.FromHex(in)
	if err != nil {
		res.Err = err
		return res
	}
	p, next, err := packet.DecodeWithLimits(seq, 0, limits)
	if err != nil {
		res.Err = err
		return res
	}
	res.Bits = next
	res.Packet = p
	res.VersionSum = eval.VersionSum(p)
	res.Value, res.Err = eval.Evaluate(p)
	return res
}
