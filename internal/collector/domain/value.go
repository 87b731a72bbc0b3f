package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueKind は回答がどの形で記録されたかを表す。
type ValueKind int

const (
	ValueAbsent ValueKind = iota
	ValueText
	ValueNumber
)

// Value は記録された回答 1 つ。ゼロ値は未回答。
type Value struct {
	kind   ValueKind
	text   string
	number float64
}

// TextValue は文字列の回答を包む。
func TextValue(s string) Value {
	return Value{kind: ValueText, text: s}
}

// NumberValue は数値の回答を包む。
func NumberValue(f float64) Value {
	return Value{kind: ValueNumber, number: f}
}

// ValueFromAny はデコード済みの JSON/BSON スカラーを Value に変換する。
func ValueFromAny(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return Value{}
	case Value:
		return v
	case string:
		return TextValue(v)
	case float64:
		return NumberValue(v)
	case float32:
		return NumberValue(float64(v))
	case int:
		return NumberValue(float64(v))
	case int32:
		return NumberValue(float64(v))
	case int64:
		return NumberValue(float64(v))
	case bool:
		return TextValue(strconv.FormatBool(v))
	default:
		return TextValue(fmt.Sprint(v))
	}
}

func (v Value) IsAbsent() bool { return v.kind == ValueAbsent }

// Raw は JSON/BSON へエンコードできる形で値を返す。
func (v Value) Raw() any {
	switch v.kind {
	case ValueText:
		return v.text
	case ValueNumber:
		return v.number
	default:
		return nil
	}
}

// Display はレポート上の表示文字列を返す。未回答は空文字。
func (v Value) Display() string {
	switch v.kind {
	case ValueText:
		return v.text
	case ValueNumber:
		return FormatNumber(v.number)
	default:
		return ""
	}
}

// Number は合計用に数値へ変換する。未回答は変換不可、空文字は 0 とみなす。
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case ValueNumber:
		return v.number, true
	case ValueText:
		return ParseNumber(v.text)
	default:
		return 0, false
	}
}

// ParseNumber は前後の空白を除いた 10 進表記を解釈する。NaN と無限大は拒否する。
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FormatNumber は末尾の 0 を付けずに数値を文字列にする。
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
