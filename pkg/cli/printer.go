package cli

import (
	"fmt"
	"io"

	"github.com/m-mizutani/goerr/v2"
)

// printer keeps the first write error of a sequence of formatted writes
type printer struct {
	w   io.Writer
	err error
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	if _, err := fmt.Fprintf(p.w, format, args...); err != nil {
		p.err = goerr.Wrap(err, "failed to write output")
	}
}
