package report

import (
	"encoding/json"
	"io"
	"time"
)

// LiveView はダッシュボードがポーリングする構造化表現。
type LiveView struct {
	EventName    string              `json:"eventName"`
	Fields       []string            `json:"fields"`
	NumberFields []string            `json:"numberFields"`
	Submissions  []map[string]string `json:"submissions"`
	Totals       map[string]float64  `json:"totals"`
	LastUpdated  string              `json:"lastUpdated"`
}

// NewLiveView はレポートをライブビューのペイロードに変換する。
// 各回答はラベルごとのキーと "createdAt" を持つ。
func NewLiveView(r *Report) LiveView {
	submissions := make([]map[string]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		item := make(map[string]string, len(r.Fields)+1)
		for i, label := range r.Fields {
			item[label] = row.Values[i]
		}
		item["createdAt"] = row.SubmittedAt
		submissions = append(submissions, item)
	}

	return LiveView{
		EventName:    r.EventName,
		Fields:       append([]string{}, r.Fields...),
		NumberFields: append([]string{}, r.NumberFields...),
		Submissions:  submissions,
		Totals:       r.Totals,
		LastUpdated:  r.GeneratedAt.UTC().Format(time.RFC3339Nano),
	}
}

// JSONEncoder はライブビューの JSON を書き出す。
type JSONEncoder struct{}

func (JSONEncoder) ContentType() string { return "application/json" }

func (JSONEncoder) Extension() string { return "json" }

func (JSONEncoder) Encode(w io.Writer, r *Report) error {
	return json.NewEncoder(w).Encode(NewLiveView(r))
}
