package report

// PageLayout はページ分割するエンコーダーが共有する寸法。単位は PDF ならポイント、
// PNG ならピクセル。Y は上端から下向きに増える。
type PageLayout struct {
	Width     float64
	Height    float64
	Margin    float64
	RowHeight float64
	FontSize  float64
	TitleSize float64
}

// DefaultPageLayout は余白 40 の 600x800 ページ。
func DefaultPageLayout() PageLayout {
	return PageLayout{
		Width:     600,
		Height:    800,
		Margin:    40,
		RowHeight: 20,
		FontSize:  10,
		TitleSize: 16,
	}
}

// LineKind は配置した行の種類。
type LineKind int

const (
	LineTitle LineKind = iota
	LineHeader
	LineRow
	LineTotal
)

// Line は配置済みの 1 行。Y はベースライン。
type Line struct {
	Kind  LineKind
	Y     float64
	Cells []string
}

// Page は 1 ページに並ぶ行。
type Page struct {
	Lines []Line
}

// ColumnWidth は印字幅を cols 列で均等に割る。
func (l PageLayout) ColumnWidth(cols int) float64 {
	if cols <= 0 {
		return l.Width - 2*l.Margin
	}
	return (l.Width - 2*l.Margin) / float64(cols)
}

// ColumnX は i 列目の左端を返す。
func (l PageLayout) ColumnX(i, cols int) float64 {
	return l.Margin + float64(i)*l.ColumnWidth(cols)
}

// Paginate はタイトル、ヘッダー、各行、集計行をページに割り付ける。
// 2 ページ目以降も先頭にヘッダーを繰り返す。
func (l PageLayout) Paginate(r *Report) []Page {
	header := r.Header(true)
	limit := l.Height - l.Margin

	pages := []Page{{}}
	current := &pages[0]
	current.Lines = append(current.Lines,
		Line{Kind: LineTitle, Y: l.Margin + 10, Cells: []string{"Submissions for " + r.EventName}},
		Line{Kind: LineHeader, Y: l.Margin + 40, Cells: header},
	)
	y := l.Margin + 40 + l.RowHeight

	newPage := func() {
		pages = append(pages, Page{})
		current = &pages[len(pages)-1]
		current.Lines = append(current.Lines, Line{Kind: LineHeader, Y: l.Margin + 10, Cells: header})
		y = l.Margin + 10 + l.RowHeight
	}

	for _, row := range r.Rows {
		if y > limit {
			newPage()
		}
		current.Lines = append(current.Lines, Line{Kind: LineRow, Y: y, Cells: row.Cells()})
		y += l.RowHeight
	}

	if totals := r.TotalCells(); totals != nil {
		y += l.RowHeight / 2
		if y > limit {
			newPage()
		}
		current.Lines = append(current.Lines, Line{Kind: LineTotal, Y: y, Cells: totals})
	}

	return pages
}
