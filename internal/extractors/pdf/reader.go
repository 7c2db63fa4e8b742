package pdf

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// open parses PDF bytes.
func open(content []byte) (r *pdf.Reader, err error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty pdf", domain.ErrExtraction)
	}
	err = safely(func() error {
		var openErr error
		r, openErr = pdf.NewReader(bytes.NewReader(content), int64(len(content)))
		return openErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %w", domain.ErrExtraction, err)
	}
	return r, nil
}

// safely runs fn, turning a panic in the PDF parser into an error.
func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: malformed pdf: %v", domain.ErrExtraction, r)
		}
	}()
	return fn()
}
