package report

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/formcollector/api/internal/collector/domain"
)

// NumericPolicy は集計行で合計する項目の判定方法。
type NumericPolicy string

const (
	// PolicyDeclared は number として定義された項目だけを合計する。
	PolicyDeclared NumericPolicy = "declared"
	// PolicyDeclaredOrDigits は先頭の回答が数字だけの項目も合計する。
	PolicyDeclaredOrDigits NumericPolicy = "declared-or-digits"
)

var digitsPattern = regexp.MustCompile(`^\d+$`)

// ParseNumericPolicy は設定値のポリシー名を解釈する。
func ParseNumericPolicy(value string) (NumericPolicy, error) {
	switch p := NumericPolicy(strings.ToLower(strings.TrimSpace(value))); p {
	case "", PolicyDeclared:
		return PolicyDeclared, nil
	case PolicyDeclaredOrDigits:
		return p, nil
	default:
		return "", fmt.Errorf("数値判定ポリシー %s は未対応です", value)
	}
}

// IsNumeric は field が数値項目かを判定する。sample は先頭の回答の値で、
// 数字判定のときだけ参照する。
func (p NumericPolicy) IsNumeric(field domain.Field, sample domain.Value) bool {
	if strings.EqualFold(string(field.Type), string(domain.FieldNumber)) {
		return true
	}
	if p != PolicyDeclaredOrDigits || sample.IsAbsent() {
		return false
	}
	return digitsPattern.MatchString(sample.Display())
}

// NumericLabels は数値項目のラベルを定義順で返す。
func (p NumericPolicy) NumericLabels(event domain.Event, submissions []domain.Submission) []string {
	labels := make([]string, 0, len(event.Fields))
	for _, field := range event.Fields {
		var sample domain.Value
		if len(submissions) > 0 {
			sample = submissions[0].Lookup(field.Label)
		}
		if p.IsNumeric(field, sample) {
			labels = append(labels, field.Label)
		}
	}
	return labels
}
