package report

import (
	"time"

	"github.com/formcollector/api/internal/collector/domain"
	"github.com/formcollector/api/internal/fault"
)

const (
	// SubmittedAtHeader はすべてのレポートの末尾に固定で付く列。
	SubmittedAtHeader = "Submitted At"
	// TotalLabel は集計行の末尾列に入る印。
	TotalLabel = "TOTAL"
	// TimestampLayout は回答日時の書式。
	TimestampLayout = "1/2/2006, 3:04:05 PM"

	numericAnnotation = " (#)"
)

// Report は各エンコーダーが受け取る正規化済みの集計結果。
type Report struct {
	EventID      string
	EventName    string
	Fields       []string
	NumberFields []string
	Rows         []Row
	// 数値項目が無ければ nil。
	Totals      map[string]float64
	GeneratedAt time.Time
}

// Row は 1 件の回答。Values は Report.Fields と同じ並び。
type Row struct {
	SubmissionID  string
	OriginAddress string
	Values        []string
	SubmittedAt   string
	CreatedAt     time.Time
}

// Engine はイベントの項目定義に沿って回答を集計する。
type Engine struct {
	location *time.Location
	policy   NumericPolicy
	now      func() time.Time
}

// NewEngine は日時を loc（nil なら UTC）で表示するエンジンを生成する。
func NewEngine(loc *time.Location, policy NumericPolicy) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	if policy == "" {
		policy = PolicyDeclared
	}
	return &Engine{location: loc, policy: policy, now: time.Now}
}

// WithClock は生成日時の時計を差し替える。
func (e *Engine) WithClock(now func() time.Time) *Engine {
	clone := *e
	clone.now = now
	return &clone
}

// Build は回答を渡された順に辿って Report を作る。
// 回答が 1 件も無ければ fault.ErrNoData を返す。
func (e *Engine) Build(event domain.Event, submissions []domain.Submission) (*Report, error) {
	if len(submissions) == 0 {
		return nil, fault.ErrNoData
	}

	labels := event.Labels()
	numberFields := e.policy.NumericLabels(event, submissions)
	numeric := make(map[string]bool, len(numberFields))
	var totals map[string]float64
	if len(numberFields) > 0 {
		totals = make(map[string]float64, len(numberFields))
		for _, label := range numberFields {
			numeric[label] = true
			totals[label] = 0
		}
	}

	rows := make([]Row, 0, len(submissions))
	for _, sub := range submissions {
		values := make([]string, len(labels))
		for i, label := range labels {
			value := sub.Lookup(label)
			values[i] = value.Display()
			if !numeric[label] {
				continue
			}
			if n, ok := value.Number(); ok {
				totals[label] += n
			}
		}
		rows = append(rows, Row{
			SubmissionID:  sub.ID,
			OriginAddress: sub.OriginAddress,
			Values:        values,
			SubmittedAt:   sub.CreatedAt.In(e.location).Format(TimestampLayout),
			CreatedAt:     sub.CreatedAt,
		})
	}

	return &Report{
		EventID:      event.ID,
		EventName:    event.Name,
		Fields:       labels,
		NumberFields: numberFields,
		Rows:         rows,
		Totals:       totals,
		GeneratedAt:  e.now().UTC(),
	}, nil
}

// IsNumeric は label が合計対象かどうかを返す。
func (r *Report) IsNumeric(label string) bool {
	for _, l := range r.NumberFields {
		if l == label {
			return true
		}
	}
	return false
}

// HasTotals は集計行を出力するかどうかを返す。
func (r *Report) HasTotals() bool {
	return r.Totals != nil
}

// Header はヘッダー行を返す。annotate が真なら数値列に印を付ける。
func (r *Report) Header(annotate bool) []string {
	cells := make([]string, 0, len(r.Fields)+1)
	for _, label := range r.Fields {
		if annotate && r.IsNumeric(label) {
			label += numericAnnotation
		}
		cells = append(cells, label)
	}
	return append(cells, SubmittedAtHeader)
}

// Cells は日時列を含む行のセルを返す。
func (row Row) Cells() []string {
	cells := make([]string, 0, len(row.Values)+1)
	cells = append(cells, row.Values...)
	return append(cells, row.SubmittedAt)
}

// TotalCells は集計行を返す。集計が無ければ nil。
func (r *Report) TotalCells() []string {
	if !r.HasTotals() {
		return nil
	}
	cells := make([]string, 0, len(r.Fields)+1)
	for _, label := range r.Fields {
		if total, ok := r.Totals[label]; ok {
			cells = append(cells, domain.FormatNumber(total))
			continue
		}
		cells = append(cells, "")
	}
	return append(cells, TotalLabel)
}
