// Package sniff derives payload kinds from byte signatures. Declared upload
// content types are untrusted and never consulted.
package sniff

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	"github.com/casebinder/casebinder/internal/core/domain"
)

type Sniffer struct{}

func New() *Sniffer {
	return &Sniffer{}
}

func (s *Sniffer) Sniff(payload []byte) (domain.SignatureKind, error) {
	if len(payload) == 0 {
		return domain.SignatureUnknown, fmt.Errorf("empty payload")
	}
	mt := mimetype.Detect(payload)
	switch {
	case mt.Is("application/pdf"):
		return domain.SignaturePDF, nil
	case mt.Is("image/png"):
		return domain.SignaturePNG, nil
	case mt.Is("image/jpeg"):
		return domain.SignatureJPEG, nil
	default:
		return domain.SignatureUnknown, fmt.Errorf("unsupported byte signature %s", mt.String())
	}
}
