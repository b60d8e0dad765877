// Package pdftext extracts text and page counts from intake payloads. PDF
// parsing uses embedded text only; image payloads and text-free scans are
// reported with the OCR-fallback signal so classification can degrade
// safely.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/casebinder/casebinder/internal/core/domain"
)

type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(_ context.Context, payload []byte, kind domain.SignatureKind) (domain.Extraction, error) {
	switch kind {
	case domain.SignaturePDF:
		return extractPDF(payload)
	case domain.SignaturePNG, domain.SignatureJPEG:
		// Images are single page-equivalent units with no embedded text.
		return domain.Extraction{PageCount: 1, OCRFallback: true}, nil
	default:
		return domain.Extraction{}, fmt.Errorf("unsupported signature kind %q", kind)
	}
}

func extractPDF(payload []byte) (out domain.Extraction, err error) {
	// The pdf library panics on some malformed files; a corrupt upload must
	// surface as a per-file failure, not take down the batch.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return domain.Extraction{}, fmt.Errorf("parse pdf: %w", err)
	}

	out.PageCount = reader.NumPage()
	if out.PageCount < 1 {
		return domain.Extraction{}, fmt.Errorf("parse pdf: no pages")
	}

	text := readPlainText(reader)
	out.Text = text
	out.OCRFallback = text == ""
	return out, nil
}

func readPlainText(reader *pdf.Reader) (text string) {
	defer func() {
		// Text extraction failures degrade to the OCR-fallback path.
		if r := recover(); r != nil {
			text = ""
		}
	}()

	content, err := reader.GetPlainText()
	if err != nil {
		return ""
	}
	raw, err := io.ReadAll(content)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}
