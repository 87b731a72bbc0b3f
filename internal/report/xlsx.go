package report

import (
	"io"
	"strings"

	"github.com/formcollector/api/internal/collector/domain"
	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Submissions"

// XLSXEncoder は 1 枚のシートを書き出す。数値列の変換可能な回答と集計値は
// 数値として格納し、表計算の数式がそのまま使えるようにする。
type XLSXEncoder struct{}

func (XLSXEncoder) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSXEncoder) Extension() string { return "xlsx" }

func (XLSXEncoder) Encode(w io.Writer, r *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	header := r.Header(false)
	if err := writeXLSXRow(f, 1, toCells(header)); err != nil {
		return err
	}
	if err := f.SetRowStyle(xlsxSheet, 1, 1, bold); err != nil {
		return err
	}

	numeric := make([]bool, len(r.Fields))
	for i, label := range r.Fields {
		numeric[i] = r.IsNumeric(label)
	}

	rowIndex := 2
	for _, row := range r.Rows {
		cells := make([]any, 0, len(row.Values)+1)
		for i, value := range row.Values {
			cells = append(cells, xlsxValue(value, numeric[i]))
		}
		cells = append(cells, row.SubmittedAt)
		if err := writeXLSXRow(f, rowIndex, cells); err != nil {
			return err
		}
		rowIndex++
	}

	if r.HasTotals() {
		cells := make([]any, 0, len(r.Fields)+1)
		for _, label := range r.Fields {
			if total, ok := r.Totals[label]; ok {
				cells = append(cells, total)
				continue
			}
			cells = append(cells, "")
		}
		cells = append(cells, TotalLabel)
		if err := writeXLSXRow(f, rowIndex, cells); err != nil {
			return err
		}
		if err := f.SetRowStyle(xlsxSheet, rowIndex, rowIndex, bold); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(xlsxSheet, "A", lastCol, 20); err != nil {
		return err
	}
	if err := f.SetPanes(xlsxSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	return f.Write(w)
}

func writeXLSXRow(f *excelize.File, row int, cells []any) error {
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(xlsxSheet, start, &cells)
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

// xlsxValue は表示が変わらない場合に限り数値として格納する。
// 空の回答は 0 と読まれないよう空文字のまま残す。
func xlsxValue(display string, numeric bool) any {
	if !numeric || strings.TrimSpace(display) == "" {
		return display
	}
	if n, ok := domain.ParseNumber(display); ok && domain.FormatNumber(n) == display {
		return n
	}
	return display
}
