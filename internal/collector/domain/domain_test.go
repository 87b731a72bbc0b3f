package domain

import (
	"testing"
	"time"

	"github.com/formcollector/api/internal/fault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueNumber(t *testing.T) {
	tests := []struct {
		name    string
		value   Value
		want    float64
		wantOK  bool
		display string
	}{
		{name: "absent", value: Value{}, want: 0, wantOK: false, display: ""},
		{name: "number", value: NumberValue(30), want: 30, wantOK: true, display: "30"},
		{name: "fractional number", value: NumberValue(2.5), want: 2.5, wantOK: true, display: "2.5"},
		{name: "numeric text", value: TextValue(" 40 "), want: 40, wantOK: true, display: " 40 "},
		{name: "empty text", value: TextValue(""), want: 0, wantOK: true, display: ""},
		{name: "words", value: TextValue("forty"), want: 0, wantOK: false, display: "forty"},
		{name: "NaN text", value: TextValue("NaN"), want: 0, wantOK: false, display: "NaN"},
		{name: "infinity text", value: TextValue("Inf"), want: 0, wantOK: false, display: "Inf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.value.Number()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.display, tt.value.Display())
		})
	}
}

func TestValueFromAny(t *testing.T) {
	assert.True(t, ValueFromAny(nil).IsAbsent())
	assert.Equal(t, "a", ValueFromAny("a").Raw())
	assert.Equal(t, float64(3), ValueFromAny(float64(3)).Raw())
	assert.Equal(t, float64(3), ValueFromAny(int32(3)).Raw())
	assert.Equal(t, float64(3), ValueFromAny(int64(3)).Raw())
	assert.Equal(t, TextValue("x"), ValueFromAny(TextValue("x")))
	assert.Equal(t, "true", ValueFromAny(true).Display())
	assert.Equal(t, float64(7), NumberValue(7).Raw())
	assert.Nil(t, Value{}.Raw())
}

func TestNewField(t *testing.T) {
	tests := []struct {
		name      string
		label     string
		fieldType string
		options   []string
		want      Field
		wantErr   bool
	}{
		{
			name:      "number is case-insensitive",
			label:     "Age",
			fieldType: "Number",
			want:      Field{Label: "Age", Type: FieldNumber},
		},
		{
			name:      "dropdown keeps unique options",
			label:     " Size ",
			fieldType: "dropdown",
			options:   []string{"S", "M", "S", " "},
			want:      Field{Label: "Size", Type: FieldDropdown, Options: []string{"S", "M"}},
		},
		{
			name:      "options dropped for text",
			label:     "Name",
			fieldType: "text",
			options:   []string{"x"},
			want:      Field{Label: "Name", Type: FieldText},
		},
		{name: "radio without options", label: "Pick", fieldType: "radio", wantErr: true},
		{name: "empty label", label: "  ", fieldType: "text", wantErr: true},
		{name: "unknown type", label: "X", fieldType: "checkbox", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewField(tt.label, tt.fieldType, tt.options)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, fault.KindInvalid, fault.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateFields(t *testing.T) {
	err := ValidateFields([]Field{{Label: "A", Type: FieldText}, {Label: "A", Type: FieldNumber}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate field label")

	require.Error(t, ValidateFields(nil))
	require.NoError(t, ValidateFields([]Field{{Label: "A", Type: FieldText}, {Label: "B", Type: FieldNumber}}))
}

func TestEventExpired(t *testing.T) {
	expires := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	event := Event{ExpiresAt: expires}

	assert.False(t, event.Expired(expires))
	assert.False(t, event.Expired(expires.Add(-time.Second)))
	assert.True(t, event.Expired(expires.Add(time.Second)))
}

func TestSubmissionLookup(t *testing.T) {
	sub := Submission{Data: map[string]Value{"Name": TextValue("A")}}
	assert.Equal(t, "A", sub.Lookup("Name").Display())
	assert.True(t, sub.Lookup("Missing").IsAbsent())
	assert.True(t, Submission{}.Lookup("Name").IsAbsent())
}
