package measure

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/quire/model"
)

// FontMetrics answers text-extent queries for the measurement engine. It is
// the engine's only external dependency and the only point where layout may
// suspend: implementations are free to block on a platform text stack.
//
// Extent returns the advance width of text and the line height of the style,
// both in layout units (points).
type FontMetrics interface {
	Extent(text string, style model.TextStyle) (width, height float64, err error)
}

// GoFontMetrics is the default FontMetrics implementation, backed by the Go
// font family. It is pure Go and deterministic across platforms.
//
// Faces are cached per (size, bold, italic). GoFontMetrics is scoped to one
// layout session and, like the rest of the engine, is single-writer: it must
// not be shared across concurrently laying-out sessions.
type GoFontMetrics struct {
	regular    *opentype.Font
	bold       *opentype.Font
	italic     *opentype.Font
	boldItalic *opentype.Font

	faces map[faceKey]font.Face
}

type faceKey struct {
	size   float64
	bold   bool
	italic bool
}

// NewGoFontMetrics parses the embedded Go fonts and returns a ready metrics
// provider.
func NewGoFontMetrics() (*GoFontMetrics, error) {
	m := &GoFontMetrics{faces: make(map[faceKey]font.Face)}

	var err error
	if m.regular, err = opentype.Parse(goregular.TTF); err != nil {
		return nil, fmt.Errorf("parse Go Regular: %w", err)
	}
	if m.bold, err = opentype.Parse(gobold.TTF); err != nil {
		return nil, fmt.Errorf("parse Go Bold: %w", err)
	}
	if m.italic, err = opentype.Parse(goitalic.TTF); err != nil {
		return nil, fmt.Errorf("parse Go Italic: %w", err)
	}
	if m.boldItalic, err = opentype.Parse(gobolditalic.TTF); err != nil {
		return nil, fmt.Errorf("parse Go Bold Italic: %w", err)
	}
	return m, nil
}

// Extent measures text at the given style. Text is NFC-normalized first so
// canonically equivalent strings measure identically.
func (m *GoFontMetrics) Extent(text string, style model.TextStyle) (float64, float64, error) {
	face, err := m.face(style)
	if err != nil {
		return 0, 0, err
	}

	adv := font.MeasureString(face, norm.NFC.String(text))
	met := face.Metrics()
	return fixedToFloat(adv), fixedToFloat(met.Height), nil
}

func (m *GoFontMetrics) face(style model.TextStyle) (font.Face, error) {
	size := style.FontSize
	if size <= 0 {
		size = 11
	}
	key := faceKey{size: size, bold: style.Bold, italic: style.Italic}
	if f, ok := m.faces[key]; ok {
		return f, nil
	}

	src := m.regular
	switch {
	case style.Bold && style.Italic:
		src = m.boldItalic
	case style.Bold:
		src = m.bold
	case style.Italic:
		src = m.italic
	}

	f, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     72, // 1 point = 1 pixel, keeps results in layout units
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("face at %.2fpt: %w", size, err)
	}
	m.faces[key] = f
	return f, nil
}

// fixedToFloat converts a 26.6 fixed-point value to float64 points.
func fixedToFloat[T ~int32](v T) float64 {
	return float64(v) / 64
}
