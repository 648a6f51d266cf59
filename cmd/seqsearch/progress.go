package main

import (
	"io"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// progressBar renders engine progress callbacks. The bar is created on the
// first callback, when the total is known.
type progressBar struct {
	name string
	out  io.Writer

	mu   sync.Mutex
	p    *mpb.Progress
	bar  *mpb.Bar
	done int
}

func newProgressBar(name string, out io.Writer) *progressBar {
	return &progressBar{name: name, out: out}
}

// Update is safe for concurrent use. Callbacks may arrive out of order; the
// bar only moves forward.
func (b *progressBar) Update(done, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar == nil {
		b.p = mpb.New(mpb.WithWidth(40), mpb.WithOutput(b.out))
		b.bar = b.p.AddBar(int64(total),
			mpb.PrependDecorators(
				decor.Name(b.name, decor.WC{W: len(b.name) + 1, C: decor.DindentRight}),
				decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(
				decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
				decor.AverageETA(decor.ET_STYLE_GO),
				decor.OnComplete(decor.Name(""), ". done"),
			),
		)
	}
	if done > b.done {
		b.done = done
		b.bar.SetCurrent(int64(done))
	}
}

// Finish completes the bar on success and drops it on failure, then waits
// for the final render.
func (b *progressBar) Finish(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar == nil {
		return
	}
	if ok {
		b.bar.SetTotal(-1, true)
	} else {
		b.bar.Abort(true)
	}
	b.p.Wait()
}
