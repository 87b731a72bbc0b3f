package report

import (
	"encoding/csv"
	"io"
)

// CSVEncoder はヘッダー、行ごとのレコード、集計行（あれば）を書き出す。
type CSVEncoder struct{}

func (CSVEncoder) ContentType() string { return "text/csv; charset=utf-8" }

func (CSVEncoder) Extension() string { return "csv" }

func (CSVEncoder) Encode(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(r.Header(false)); err != nil {
		return err
	}
	for _, row := range r.Rows {
		if err := cw.Write(row.Cells()); err != nil {
			return err
		}
	}
	if totals := r.TotalCells(); totals != nil {
		if err := cw.Write(totals); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
