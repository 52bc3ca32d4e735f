package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// ConverterBinary is the librsvg command line tool used for conversion.
var ConverterBinary = "rsvg-convert"

// ToPDF converts SVG to PDF.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return convert(ctx, svg, "-f", "pdf")
}

// ToPNG converts SVG to PNG. A scale of 2.0 doubles the resolution.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1
	}
	return convert(ctx, svg, "-f", "png", "-z", strconv.FormatFloat(scale, 'f', -1, 64))
}

// Available reports whether the converter can be found on PATH.
func Available() bool {
	_, err := exec.LookPath(ConverterBinary)
	return err == nil
}

func convert(ctx context.Context, svg []byte, args ...string) ([]byte, error) {
	path, err := exec.LookPath(ConverterBinary)
	if err != nil {
		return nil, fmt.Errorf("%s not found (install librsvg): %w", ConverterBinary, err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = bytes.NewReader(svg)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return nil, fmt.Errorf("%s: %w: %s", ConverterBinary, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", ConverterBinary, err)
	}
	return stdout.Bytes(), nil
}
