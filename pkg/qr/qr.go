// Package qr renders the login deep-link as a QR code, either as unicode
// blocks on the terminal or as a PNG file for screens that cannot display
// block characters.
package qr

import (
	"fmt"
	"io"
	"strings"

	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
)

// PrintTerminal writes the payload as a block-character QR code to w
func PrintTerminal(w io.Writer, payload string) error {
	code, err := qrcode.NewWith(payload,
		qrcode.WithEncodingMode(qrcode.EncModeByte),
		qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionLow),
	)
	if err != nil {
		return fmt.Errorf("failed to build QR code: %w", err)
	}

	tw := &terminalWriter{out: w}
	if err := code.Save(tw); err != nil {
		return fmt.Errorf("failed to render QR code: %w", err)
	}
	return nil
}

// SavePNG writes the payload as a PNG image at path
func SavePNG(payload, path string) error {
	code, err := qrcode.NewWith(payload,
		qrcode.WithEncodingMode(qrcode.EncModeByte),
		qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionQuart),
	)
	if err != nil {
		return fmt.Errorf("failed to build QR code: %w", err)
	}

	w, err := standard.New(path)
	if err != nil {
		return fmt.Errorf("failed to create PNG writer: %w", err)
	}
	if err := code.Save(w); err != nil {
		return fmt.Errorf("failed to save QR code: %w", err)
	}
	return nil
}

// terminalWriter renders a QR matrix with unicode blocks. Each module is two
// characters wide so the code stays roughly square, and a quiet zone of one
// module surrounds it.
type terminalWriter struct {
	out io.Writer
}

func (t *terminalWriter) Write(mat qrcode.Matrix) error {
	width := mat.Width()
	height := mat.Height()

	set := make(map[[2]int]bool, width*height)
	mat.Iterate(qrcode.IterDirection_ROW, func(x, y int, v qrcode.QRValue) {
		if v.IsSet() {
			set[[2]int{x, y}] = true
		}
	})

	dark := "██"
	light := "  "
	quiet := strings.Repeat(light, width+2)

	var b strings.Builder
	b.WriteString(quiet + "\n")
	for y := 0; y < height; y++ {
		b.WriteString(light)
		for x := 0; x < width; x++ {
			if set[[2]int{x, y}] {
				b.WriteString(dark)
			} else {
				b.WriteString(light)
			}
		}
		b.WriteString(light + "\n")
	}
	b.WriteString(quiet + "\n")

	_, err := io.WriteString(t.out, b.String())
	return err
}

func (t *terminalWriter) Close() error {
	return nil
}
