package pdfrender

import "context"

// Engine converts a complete HTML page into PDF bytes. The conversion is a
// black box; callers only see bytes or an error.
type Engine interface {
	Convert(ctx context.Context, html string) ([]byte, error)
}
