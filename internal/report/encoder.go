package report

import (
	"io"
	"strings"

	"github.com/formcollector/api/internal/fault"
)

// Encoder は Report を 1 つのメディアタイプへ書き出す。
type Encoder interface {
	ContentType() string
	Extension() string
	Encode(w io.Writer, r *Report) error
}

// Format はエクスポート形式の名前。
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
	FormatPNG  Format = "png"
)

// ParseFormat は形式名を解釈する。空文字は CSV とみなす。
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case "":
		return FormatCSV, nil
	case FormatJSON, FormatCSV, FormatPDF, FormatXLSX, FormatPNG:
		return f, nil
	case "image":
		return FormatPNG, nil
	case "excel", "spreadsheet":
		return FormatXLSX, nil
	default:
		return "", fault.Invalidf("unsupported export format: %s", value)
	}
}

// Encoders はページレイアウトとフォントを共有するエンコーダー群を形式ごとに引き当てる。
type Encoders struct {
	layout      PageLayout
	font        []byte
	pngMaxPages int
}

// NewEncoders はエンコーダー群を組み立てる。font は PDF と PNG で使う TrueType フォントで、
// nil なら組み込みの書体を使う。
func NewEncoders(layout PageLayout, font []byte) *Encoders {
	return &Encoders{layout: layout, font: font, pngMaxPages: DefaultPNGMaxPages}
}

// WithPNGMaxPages は PNG 出力のページ数上限を差し替える。0 以下は既定値のまま。
func (e *Encoders) WithPNGMaxPages(n int) *Encoders {
	clone := *e
	if n > 0 {
		clone.pngMaxPages = n
	}
	return &clone
}

// For は format に対応するエンコーダーを返す。
func (e *Encoders) For(format Format) (Encoder, error) {
	switch format {
	case FormatJSON:
		return JSONEncoder{}, nil
	case FormatCSV:
		return CSVEncoder{}, nil
	case FormatPDF:
		return PDFEncoder{Layout: e.layout, Font: e.font}, nil
	case FormatXLSX:
		return XLSXEncoder{}, nil
	case FormatPNG:
		return PNGEncoder{Layout: e.layout, Font: e.font, MaxPages: e.pngMaxPages}, nil
	default:
		return nil, fault.Invalidf("unsupported export format: %s", format)
	}
}
