package report

import (
	"io"

	"github.com/go-pdf/fpdf"
)

const (
	pdfFontFamily = "report"
	coreFontName  = "Helvetica"
)

// PDFEncoder はページ分割した表を描画する。Font があれば埋め込み、
// 無ければ標準の Helvetica を cp1252 変換付きで使う。
type PDFEncoder struct {
	Layout PageLayout
	Font   []byte
}

func (PDFEncoder) ContentType() string { return "application/pdf" }

func (PDFEncoder) Extension() string { return "pdf" }

func (e PDFEncoder) Encode(w io.Writer, r *Report) error {
	l := e.Layout
	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: l.Width, Ht: l.Height},
	})
	pdf.SetMargins(l.Margin, l.Margin, l.Margin)
	pdf.SetAutoPageBreak(false, l.Margin)
	pdf.SetTitle("Submissions for "+r.EventName, true)
	pdf.SetCreator("formcollector", true)

	family := coreFontName
	translate := pdf.UnicodeTranslatorFromDescriptor("")
	if len(e.Font) > 0 {
		pdf.AddUTF8FontFromBytes(pdfFontFamily, "", e.Font)
		family = pdfFontFamily
		translate = func(s string) string { return s }
	}

	cols := len(r.Fields) + 1
	colWidth := l.ColumnWidth(cols)
	measure := func(s string) float64 { return pdf.GetStringWidth(translate(s)) }

	for _, page := range l.Paginate(r) {
		pdf.AddPage()
		for _, line := range page.Lines {
			size := l.FontSize
			style := ""
			switch line.Kind {
			case LineTitle:
				size = l.TitleSize
			case LineHeader, LineTotal:
				if family == coreFontName {
					style = "B"
				}
			}
			pdf.SetFont(family, style, size)

			if line.Kind == LineTitle {
				pdf.Text(l.Margin, line.Y, translate(line.Cells[0]))
				continue
			}
			for i, cell := range line.Cells {
				text := fitText(cell, colWidth-4, measure)
				pdf.Text(l.ColumnX(i, cols), line.Y, translate(text))
			}
		}
		if pdf.Err() {
			return pdf.Error()
		}
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

// fitText は measure(s) が width に収まるまで末尾を省略記号で詰める。
func fitText(s string, width float64, measure func(string) float64) string {
	if s == "" || measure(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "..."
		if measure(candidate) <= width {
			return candidate
		}
	}
	return ""
}
