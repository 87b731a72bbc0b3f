package report

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/formcollector/api/internal/fault"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	headerFill    = image.NewUniform(color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff})
	pageSeparator = image.NewUniform(color.RGBA{R: 0xbb, G: 0xbb, B: 0xbb, A: 0xff})
)

// DefaultPNGMaxPages は 1 枚の画像に積むページ数の既定上限（600x800 で約 38MB）。
const DefaultPNGMaxPages = 20

// PNGEncoder はページ分割した表を縦に積んだ 1 枚の画像として描画する。
// MaxPages を超えるレポートはキャンバスを確保する前に Invalid で拒否する。0 以下は既定値。
type PNGEncoder struct {
	Layout   PageLayout
	Font     []byte
	MaxPages int
}

func (e PNGEncoder) maxPages() int {
	if e.MaxPages <= 0 {
		return DefaultPNGMaxPages
	}
	return e.MaxPages
}

func (PNGEncoder) ContentType() string { return "image/png" }

func (PNGEncoder) Extension() string { return "png" }

func (e PNGEncoder) Encode(w io.Writer, r *Report) error {
	l := e.Layout
	pages := l.Paginate(r)
	if limit := e.maxPages(); len(pages) > limit {
		return fault.Invalidf("report spans %d pages; image export is limited to %d pages, use pdf or xlsx", len(pages), limit)
	}

	body, title, err := e.faces()
	if err != nil {
		return err
	}
	defer body.Close()
	defer title.Close()

	pageHeight := int(l.Height)
	width := int(l.Width)

	img := image.NewRGBA(image.Rect(0, 0, width, pageHeight*len(pages)))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	cols := len(r.Fields) + 1
	colWidth := l.ColumnWidth(cols)
	measure := func(s string) float64 {
		return float64(font.MeasureString(body, s)) / 64
	}

	for p, page := range pages {
		top := p * pageHeight
		if p > 0 {
			draw.Draw(img, image.Rect(0, top, width, top+1), pageSeparator, image.Point{}, draw.Src)
		}
		for _, line := range page.Lines {
			baseline := top + int(line.Y)
			if line.Kind == LineTitle {
				d := &font.Drawer{Dst: img, Src: image.Black, Face: title}
				d.Dot = fixed.P(int(l.Margin), baseline)
				d.DrawString(line.Cells[0])
				continue
			}
			if line.Kind == LineHeader || line.Kind == LineTotal {
				band := image.Rect(int(l.Margin), baseline-int(l.RowHeight)+6, width-int(l.Margin), baseline+6)
				draw.Draw(img, band, headerFill, image.Point{}, draw.Src)
			}
			d := &font.Drawer{Dst: img, Src: image.Black, Face: body}
			for i, cell := range line.Cells {
				d.Dot = fixed.P(int(l.ColumnX(i, cols)), baseline)
				d.DrawString(fitText(cell, colWidth-4, measure))
			}
		}
	}

	return png.Encode(w, img)
}

// faces は本文とタイトルの書体を返す。フォント未設定なら両方とも 7x13 のビットマップ書体。
func (e PNGEncoder) faces() (font.Face, font.Face, error) {
	if len(e.Font) == 0 {
		return basicfont.Face7x13, basicfont.Face7x13, nil
	}
	parsed, err := opentype.Parse(e.Font)
	if err != nil {
		return nil, nil, err
	}
	body, err := opentype.NewFace(parsed, &opentype.FaceOptions{Size: e.Layout.FontSize, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, nil, err
	}
	title, err := opentype.NewFace(parsed, &opentype.FaceOptions{Size: e.Layout.TitleSize, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		body.Close()
		return nil, nil, err
	}
	return body, title, nil
}
