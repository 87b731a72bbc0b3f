package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"image/png"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/formcollector/api/internal/collector/domain"
	"github.com/formcollector/api/internal/fault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workedReport(t *testing.T) *Report {
	t.Helper()
	subs := []domain.Submission{
		submission("s1", fixedNow, map[string]domain.Value{"Name": domain.TextValue("A"), "Age": domain.TextValue("30")}),
		submission("s2", fixedNow.Add(time.Minute), map[string]domain.Value{"Name": domain.TextValue("B"), "Age": domain.NumberValue(40)}),
		submission("s3", fixedNow.Add(2*time.Minute), map[string]domain.Value{"Name": domain.TextValue("C, Jr."), "Age": domain.TextValue("n/a")}),
	}
	rep, err := testEngine(PolicyDeclared).Build(nameAgeEvent(), subs)
	require.NoError(t, err)
	return rep
}

func decodeCSV(t *testing.T, rep *Report) [][]string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, CSVEncoder{}.Encode(&buf, rep))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	return records
}

func decodeXLSX(t *testing.T, rep *Report) [][]string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, XLSXEncoder{}.Encode(&buf, rep))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(xlsxSheet)
	require.NoError(t, err)
	return rows
}

func TestCSVEncoder(t *testing.T) {
	records := decodeCSV(t, workedReport(t))

	assert.Equal(t, [][]string{
		{"Name", "Age", "Submitted At"},
		{"A", "30", "6/1/2024, 9:00:00 AM"},
		{"B", "40", "6/1/2024, 9:01:00 AM"},
		{"C, Jr.", "n/a", "6/1/2024, 9:02:00 AM"},
		{"", "70", "TOTAL"},
	}, records)
}

func TestCSVEncoderWithoutTotals(t *testing.T) {
	event := domain.Event{Name: "Names", Fields: []domain.Field{{Label: "Name", Type: domain.FieldText}}}
	rep, err := testEngine(PolicyDeclared).Build(event, []domain.Submission{
		submission("s1", fixedNow, map[string]domain.Value{"Name": domain.TextValue("A")}),
	})
	require.NoError(t, err)

	records := decodeCSV(t, rep)
	assert.Len(t, records, 2)
	assert.Equal(t, []string{"A", "6/1/2024, 9:00:00 AM"}, records[1])
}

func TestJSONEncoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONEncoder{}.Encode(&buf, workedReport(t)))

	var view LiveView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &view))
	assert.Equal(t, "Census", view.EventName)
	assert.Equal(t, []string{"Name", "Age"}, view.Fields)
	assert.Equal(t, []string{"Age"}, view.NumberFields)
	assert.Equal(t, map[string]float64{"Age": 70}, view.Totals)
	require.Len(t, view.Submissions, 3)
	assert.Equal(t, map[string]string{"Name": "A", "Age": "30", "createdAt": "6/1/2024, 9:00:00 AM"}, view.Submissions[0])
	assert.Equal(t, "2024-06-01T09:00:00Z", view.LastUpdated)
}

func TestJSONEncoderNullTotals(t *testing.T) {
	event := domain.Event{Name: "Names", Fields: []domain.Field{{Label: "Name", Type: domain.FieldText}}}
	rep, err := testEngine(PolicyDeclared).Build(event, []domain.Submission{
		submission("s1", fixedNow, map[string]domain.Value{"Name": domain.TextValue("A")}),
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, JSONEncoder{}.Encode(&buf, rep))
	assert.Contains(t, buf.String(), `"totals":null`)
}

func TestXLSXEncoder(t *testing.T) {
	rows := decodeXLSX(t, workedReport(t))

	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Name", "Age", "Submitted At"}, rows[0])
	assert.Equal(t, []string{"A", "30", "6/1/2024, 9:00:00 AM"}, rows[1])
	assert.Equal(t, []string{"C, Jr.", "n/a", "6/1/2024, 9:02:00 AM"}, rows[3])
	assert.Equal(t, []string{"", "70", "TOTAL"}, rows[4])
}

// 表形式のエンコーダーはどれも同じ (ラベル, 値) の組と集計値を出力する。
func TestCrossFormatConsistency(t *testing.T) {
	rep := workedReport(t)

	csvRows := decodeCSV(t, rep)
	xlsxRows := decodeXLSX(t, rep)
	assert.Equal(t, csvRows, xlsxRows)

	var buf bytes.Buffer
	require.NoError(t, JSONEncoder{}.Encode(&buf, rep))
	var view LiveView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &view))

	header := csvRows[0]
	for i, item := range view.Submissions {
		record := csvRows[i+1]
		for col, label := range view.Fields {
			assert.Equal(t, header[col], label)
			assert.Equal(t, record[col], item[label], "row %d label %s", i, label)
		}
		assert.Equal(t, record[len(record)-1], item["createdAt"])
	}

	totalsRow := csvRows[len(csvRows)-1]
	for col, label := range view.Fields {
		if total, ok := view.Totals[label]; ok {
			assert.Equal(t, totalsRow[col], strconv.FormatFloat(total, 'f', -1, 64))
		} else {
			assert.Empty(t, totalsRow[col])
		}
	}
}

func TestPDFEncoder(t *testing.T) {
	var buf bytes.Buffer
	enc := PDFEncoder{Layout: DefaultPageLayout()}
	require.NoError(t, enc.Encode(&buf, workedReport(t)))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Equal(t, "application/pdf", enc.ContentType())
}

func TestPDFEncoderRejectsBrokenFont(t *testing.T) {
	dir := t.TempDir()
	enc := PDFEncoder{Layout: DefaultPageLayout(), Font: []byte("not a font")}

	served := false
	err := Spool(dir, enc, workedReport(t), func(*os.File, int64) error {
		served = true
		return nil
	})

	assert.Equal(t, fault.KindRenderFailure, fault.KindOf(err))
	assert.False(t, served)
	assertEmptyDir(t, dir)
}

func TestPNGEncoderStacksPages(t *testing.T) {
	ages := make([]int, 80)
	rep, err := testEngine(PolicyDeclared).Build(nameAgeEvent(), ageSubmissions(ages))
	require.NoError(t, err)

	layout := DefaultPageLayout()
	pages := layout.Paginate(rep)
	require.Greater(t, len(pages), 1)

	var buf bytes.Buffer
	require.NoError(t, PNGEncoder{Layout: layout}.Encode(&buf, rep))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, int(layout.Width), img.Bounds().Dx())
	assert.Equal(t, int(layout.Height)*len(pages), img.Bounds().Dy())
}

func TestPNGEncoderPageLimit(t *testing.T) {
	ages := make([]int, 80)
	rep, err := testEngine(PolicyDeclared).Build(nameAgeEvent(), ageSubmissions(ages))
	require.NoError(t, err)
	pages := len(DefaultPageLayout().Paginate(rep))
	require.Greater(t, pages, 1)

	var buf bytes.Buffer
	err = PNGEncoder{Layout: DefaultPageLayout(), MaxPages: pages - 1}.Encode(&buf, rep)
	require.Error(t, err)
	assert.Equal(t, fault.KindInvalid, fault.KindOf(err))
	assert.Zero(t, buf.Len())

	require.NoError(t, PNGEncoder{Layout: DefaultPageLayout(), MaxPages: pages}.Encode(&buf, rep))
	assert.NotZero(t, buf.Len())
}

func TestPNGEncoderDefaultPageLimit(t *testing.T) {
	assert.Equal(t, DefaultPNGMaxPages, PNGEncoder{}.maxPages())
	assert.Equal(t, DefaultPNGMaxPages, PNGEncoder{MaxPages: -3}.maxPages())

	enc, err := NewEncoders(DefaultPageLayout(), nil).WithPNGMaxPages(3).For(FormatPNG)
	require.NoError(t, err)
	assert.Equal(t, 3, enc.(PNGEncoder).MaxPages)

	enc, err = NewEncoders(DefaultPageLayout(), nil).WithPNGMaxPages(0).For(FormatPNG)
	require.NoError(t, err)
	assert.Equal(t, DefaultPNGMaxPages, enc.(PNGEncoder).MaxPages)
}

func TestPNGEncoderRejectsBrokenFont(t *testing.T) {
	var buf bytes.Buffer
	enc := PNGEncoder{Layout: DefaultPageLayout(), Font: []byte("not a font")}
	assert.Error(t, enc.Encode(&buf, workedReport(t)))
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"":            FormatCSV,
		"CSV":         FormatCSV,
		"pdf":         FormatPDF,
		"image":       FormatPNG,
		"png":         FormatPNG,
		"excel":       FormatXLSX,
		"xlsx":        FormatXLSX,
		"json":        FormatJSON,
		"spreadsheet": FormatXLSX,
	}
	for input, want := range tests {
		got, err := ParseFormat(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseFormat("docx")
	assert.Error(t, err)
}

func TestEncodersFor(t *testing.T) {
	encoders := NewEncoders(DefaultPageLayout(), nil)
	for _, format := range []Format{FormatJSON, FormatCSV, FormatPDF, FormatXLSX, FormatPNG} {
		enc, err := encoders.For(format)
		require.NoError(t, err)
		assert.Equal(t, string(format), enc.Extension())
	}
	_, err := encoders.For(Format("docx"))
	assert.Error(t, err)
}
