package domain

import "time"

// Submission は回答者 1 人分の回答。Data のキーが現在の項目ラベルと一致するとは限らない。
type Submission struct {
	ID            string
	EventID       string
	Data          map[string]Value
	OriginAddress string
	CreatedAt     time.Time
}

// Lookup は label の回答を返す。無ければ未回答の値。
func (s Submission) Lookup(label string) Value {
	if s.Data == nil {
		return Value{}
	}
	return s.Data[label]
}
