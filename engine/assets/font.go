package assets

import (
	"fmt"
	"path/filepath"

	"github.com/fzipp/bmfont"
)

type Glyph struct {
	X, Y          int
	Width, Height int
	XOffset       int
	YOffset       int
	XAdvance      int
	Page          int
}

type kerningPair struct {
	first, second rune
}

// BitmapFont is an AngelCode BMFont with its page images decoded to RGBA8.
type BitmapFont struct {
	Face       string
	Size       int
	LineHeight int
	Base       int
	// ScaleW and ScaleH are the page texture size the glyph rectangles refer to.
	ScaleW int
	ScaleH int
	Glyphs map[rune]Glyph
	Pages  []*Image

	kerning map[kerningPair]int
}

// LoadBitmapFont reads a .fnt descriptor and the page images next to it.
func LoadBitmapFont(path string) (*BitmapFont, error) {
	font, err := bmfont.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load bitmap font %s: %w", path, err)
	}
	desc := font.Descriptor

	f := &BitmapFont{
		Face:       desc.Info.Face,
		Size:       int(desc.Info.Size),
		LineHeight: int(desc.Common.LineHeight),
		Base:       int(desc.Common.Base),
		ScaleW:     int(desc.Common.ScaleW),
		ScaleH:     int(desc.Common.ScaleH),
		Glyphs:     make(map[rune]Glyph, len(desc.Chars)),
		Pages:      make([]*Image, len(desc.Pages)),
		kerning:    make(map[kerningPair]int, len(desc.Kerning)),
	}

	for _, g := range desc.Chars {
		f.Glyphs[rune(g.ID)] = Glyph{
			X:        int(g.X),
			Y:        int(g.Y),
			Width:    int(g.Width),
			Height:   int(g.Height),
			XOffset:  int(g.XOffset),
			YOffset:  int(g.YOffset),
			XAdvance: int(g.XAdvance),
			Page:     int(g.Page),
		}
	}
	for p, k := range desc.Kerning {
		f.kerning[kerningPair{rune(p.First), rune(p.Second)}] = int(k.Amount)
	}

	dir := filepath.Dir(path)
	for _, p := range desc.Pages {
		id := int(p.ID)
		if id < 0 || id >= len(f.Pages) {
			return nil, fmt.Errorf("bitmap font %s: page id %d out of range", path, id)
		}
		page, err := LoadImage(filepath.Join(dir, p.File), false)
		if err != nil {
			return nil, err
		}
		f.Pages[id] = page
	}
	return f, nil
}

// Kerning returns the horizontal adjustment between two consecutive runes.
func (f *BitmapFont) Kerning(first, second rune) int {
	return f.kerning[kerningPair{first, second}]
}

// Measure returns the pixel size of text laid out on one line at scale.
func (f *BitmapFont) Measure(text string, scale float32) (width, height float32) {
	var prev rune
	for i, r := range text {
		g, ok := f.Glyphs[r]
		if !ok {
			continue
		}
		if i > 0 {
			width += float32(f.Kerning(prev, r)) * scale
		}
		width += float32(g.XAdvance) * scale
		prev = r
	}
	return width, float32(f.LineHeight) * scale
}

// FloatsPerGlyph is the size of one laid out glyph: two triangles of
// x, y, u, v vertices.
const FloatsPerGlyph = 6 * 4

// Layout returns a triangle list for text with its top left corner at x, y.
// Each vertex is position then texture coordinate. Runes the font lacks and
// glyphs on a page other than 0 are skipped.
func (f *BitmapFont) Layout(text string, x, y, scale float32) []float32 {
	out := make([]float32, 0, len(text)*FloatsPerGlyph)
	penX := x
	var prev rune
	first := true
	for _, r := range text {
		g, ok := f.Glyphs[r]
		if !ok {
			continue
		}
		if !first {
			penX += float32(f.Kerning(prev, r)) * scale
		}
		first = false
		prev = r

		if g.Page == 0 && g.Width > 0 && g.Height > 0 {
			x0 := penX + float32(g.XOffset)*scale
			y0 := y + float32(g.YOffset)*scale
			x1 := x0 + float32(g.Width)*scale
			y1 := y0 + float32(g.Height)*scale

			u0 := float32(g.X) / float32(f.ScaleW)
			v0 := float32(g.Y) / float32(f.ScaleH)
			u1 := float32(g.X+g.Width) / float32(f.ScaleW)
			v1 := float32(g.Y+g.Height) / float32(f.ScaleH)

			out = append(out,
				x0, y0, u0, v0,
				x1, y0, u1, v0,
				x0, y1, u0, v1,
				x1, y0, u1, v0,
				x1, y1, u1, v1,
				x0, y1, u0, v1,
			)
		}
		penX += float32(g.XAdvance) * scale
	}
	return out
}
