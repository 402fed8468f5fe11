// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"

	"github.com/mximoph/mximoph/internal/container"
	"github.com/mximoph/mximoph/pkg/types"
)

// Converter extracts plain text from a PDF file. Backends: the pdftotext
// binary, or a converter container image. Per prd001-ingestion R4.1-R4.3.
type Converter interface {
	// Convert reads the PDF at pdfPath and returns its text content.
	Convert(pdfPath string) (string, error)
}

// PdftotextConverter shells out to poppler's pdftotext.
type PdftotextConverter struct {
	// Bin overrides the binary name, for tests. Empty means "pdftotext".
	Bin string
}

// Convert runs pdftotext writing to stdout.
func (p *PdftotextConverter) Convert(pdfPath string) (string, error) {
	bin := p.Bin
	if bin == "" {
		bin = "pdftotext"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return "", fmt.Errorf("%s not found on PATH: %w", bin, err)
	}

	var out, stderr bytes.Buffer
	cmd := exec.Command(bin, pdfPath, "-")
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("converting %s: %w (%s)", pdfPath, err, bytes.TrimSpace(stderr.Bytes()))
	}

	if out.Len() == 0 {
		return "", fmt.Errorf("%s produced empty output for %s", bin, pdfPath)
	}
	return out.String(), nil
}

const converterImage = "markitdown:latest"

// ContainerConverter pipes the PDF through a converter container image.
type ContainerConverter struct {
	runtime container.Runtime
}

// NewContainerConverter verifies the converter image exists locally before
// returning.
func NewContainerConverter(rt container.Runtime) (*ContainerConverter, error) {
	if err := rt.ImageExists(converterImage); err != nil {
		return nil, fmt.Errorf("converter image not available in %s: %w", rt.Name(), err)
	}
	return &ContainerConverter{runtime: rt}, nil
}

// Convert pipes the PDF bytes through the converter container.
func (c *ContainerConverter) Convert(pdfPath string) (string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := c.runtime.RunPiped(converterImage, f, &out); err != nil {
		return "", fmt.Errorf("converting %s in container: %w", pdfPath, err)
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("converter produced empty output for %s", pdfPath)
	}
	return out.String(), nil
}

// NewConverter builds the configured converter backend.
func NewConverter(backend types.ConverterBackend) (Converter, error) {
	switch backend {
	case types.ConverterPdftotext:
		return &PdftotextConverter{}, nil
	case types.ConverterContainer:
		rt, err := container.DetectRuntime()
		if err != nil {
			return nil, err
		}
		return NewContainerConverter(rt)
	default:
		return nil, fmt.Errorf("unknown converter backend %q", backend)
	}
}
