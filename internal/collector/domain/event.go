package domain

import (
	"strings"
	"time"

	"github.com/formcollector/api/internal/fault"
)

// FieldType は項目の入力型。
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldEmail    FieldType = "email"
	FieldDate     FieldType = "date"
	FieldDropdown FieldType = "dropdown"
	FieldRadio    FieldType = "radio"
)

// ParseFieldType は大文字小文字を区別せずに型名を正規化する。
func ParseFieldType(value string) (FieldType, error) {
	switch t := FieldType(strings.ToLower(strings.TrimSpace(value))); t {
	case FieldText, FieldNumber, FieldEmail, FieldDate, FieldDropdown, FieldRadio:
		return t, nil
	case "":
		return "", fault.Invalid("field type is required")
	default:
		return "", fault.Invalidf("unsupported field type: %s", value)
	}
}

// HasOptions は選択肢を持つ型かどうかを返す。
func (t FieldType) HasOptions() bool {
	return t == FieldDropdown || t == FieldRadio
}

// Field はイベントの項目定義 1 件。
type Field struct {
	Label   string
	Type    FieldType
	Options []string
}

// HasOption は value が選択肢に含まれるかを返す。
func (f Field) HasOption(value string) bool {
	for _, opt := range f.Options {
		if opt == value {
			return true
		}
	}
	return false
}

// Event は管理者が定義する期限付きのフォーム。
type Event struct {
	ID          string
	Name        string
	Description string
	Fields      []Field
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// Expired は now が期限を過ぎているかを返す。
func (e Event) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Labels は項目ラベルを定義順で返す。
func (e Event) Labels() []string {
	labels := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		labels = append(labels, f.Label)
	}
	return labels
}

// Field はラベルで項目を引く。
func (e Event) Field(label string) (Field, bool) {
	for _, f := range e.Fields {
		if f.Label == label {
			return f, true
		}
	}
	return Field{}, false
}

// NewField は未検証の項目定義を検証する。
func NewField(label, fieldType string, options []string) (Field, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Field{}, fault.Invalid("field label is required")
	}
	t, err := ParseFieldType(fieldType)
	if err != nil {
		return Field{}, err
	}

	cleaned := make([]string, 0, len(options))
	seen := make(map[string]struct{}, len(options))
	for _, opt := range options {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		if _, ok := seen[opt]; ok {
			continue
		}
		seen[opt] = struct{}{}
		cleaned = append(cleaned, opt)
	}

	if t.HasOptions() && len(cleaned) == 0 {
		return Field{}, fault.Invalidf("field %q requires at least one option", label)
	}
	if !t.HasOptions() {
		cleaned = nil
	}

	return Field{Label: label, Type: t, Options: cleaned}, nil
}

// ValidateFields はラベルが空でなく重複しないことを確かめる。
func ValidateFields(fields []Field) error {
	if len(fields) == 0 {
		return fault.Invalid("at least one field is required")
	}
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if strings.TrimSpace(f.Label) == "" {
			return fault.Invalid("field label is required")
		}
		if _, ok := seen[f.Label]; ok {
			return fault.Invalidf("duplicate field label: %s", f.Label)
		}
		seen[f.Label] = struct{}{}
	}
	return nil
}
