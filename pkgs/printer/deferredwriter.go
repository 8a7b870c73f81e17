package printer

import (
	"bytes"
	"io"
)

// DeferredWriter buffers printer output until Flush so command output and
// status reporting do not interleave mid-run.
type DeferredWriter struct {
	buff   bytes.Buffer
	writer io.Writer
}

func NewDeferedWriter(w io.Writer) *DeferredWriter {
	return &DeferredWriter{
		writer: w,
	}
}

func (dw *DeferredWriter) Write(p []byte) (int, error) {
	return dw.buff.Write(p)
}

func (dw *DeferredWriter) Flush() error {
	_, err := dw.buff.WriteTo(dw.writer)
	return err
}
