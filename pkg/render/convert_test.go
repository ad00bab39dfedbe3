package render

import (
	"context"
	"testing"

	"github.com/matzehuels/nnviz/pkg/errors"
)

func TestToPNGWithoutConverter(t *testing.T) {
	if ConverterAvailable() {
		t.Skip("rsvg-convert installed")
	}
	_, err := ToPNG(context.Background(), []byte("<svg/>"), 2)
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("ToPNG error = %v, want UNSUPPORTED", err)
	}
}

func TestToPDF(t *testing.T) {
	if !ConverterAvailable() {
		t.Skip("rsvg-convert not installed")
	}
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"><rect width="10" height="10"/></svg>`)
	pdf, err := ToPDF(context.Background(), svg)
	if err != nil {
		t.Fatalf("ToPDF: %v", err)
	}
	if len(pdf) < 4 || string(pdf[:4]) != "%PDF" {
		t.Errorf("output is not a PDF: %q", pdf[:min(len(pdf), 16)])
	}
}
