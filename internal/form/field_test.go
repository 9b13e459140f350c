package form

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFieldType(t *testing.T) {
	for _, ft := range FieldTypes {
		got, err := ParseFieldType(string(ft))
		require.NoError(t, err)
		assert.Equal(t, ft, got)
	}

	_, err := ParseFieldType("file_upload")
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestFieldValidate(t *testing.T) {
	tests := []struct {
		name    string
		field   Field
		wantErr bool
	}{
		{
			name:  "radio with options",
			field: Field{ID: "entry.1", Type: FieldRadio, Options: []string{"A", "B"}},
		},
		{
			name:    "radio without options",
			field:   Field{ID: "entry.1", Type: FieldRadio},
			wantErr: true,
		},
		{
			name:    "checkbox without options",
			field:   Field{ID: "entry.2", Type: FieldCheckbox},
			wantErr: true,
		},
		{
			name:  "short text",
			field: Field{ID: "entry.3", Type: FieldShortText, Required: true},
		},
		{
			name:    "paragraph with options",
			field:   Field{ID: "entry.4", Type: FieldParagraph, Options: []string{"x"}},
			wantErr: true,
		},
		{
			name:    "date with options",
			field:   Field{ID: "entry.5", Type: FieldDate, Options: []string{"2020-01-01"}},
			wantErr: true,
		},
		{
			name:  "linear scale",
			field: Field{ID: "entry.6", Type: FieldLinearScale, Scale: &Scale{Min: 1, Max: 5, Step: 1}},
		},
		{
			name:    "linear scale without range",
			field:   Field{ID: "entry.6", Type: FieldLinearScale},
			wantErr: true,
		},
		{
			name:    "linear scale spanning every int",
			field:   Field{ID: "entry.6", Type: FieldLinearScale, Scale: &Scale{Min: math.MinInt, Max: math.MaxInt, Step: 1}},
			wantErr: true,
		},
		{
			name:    "linear scale whose span overflows",
			field:   Field{ID: "entry.6", Type: FieldLinearScale, Scale: &Scale{Min: math.MinInt/2 - 1, Max: math.MaxInt/2 + 2, Step: 3}},
			wantErr: true,
		},
		{
			name:    "linear scale whose point count overflows",
			field:   Field{ID: "entry.6", Type: FieldLinearScale, Scale: &Scale{Min: 0, Max: math.MaxInt, Step: 1}},
			wantErr: true,
		},
		{
			name:    "linear scale with step larger than span",
			field:   Field{ID: "entry.6", Type: FieldLinearScale, Scale: &Scale{Min: 0, Max: 5, Step: 10}},
			wantErr: true,
		},
		{
			name:  "wide linear scale",
			field: Field{ID: "entry.6", Type: FieldLinearScale, Scale: &Scale{Min: math.MinInt / 4, Max: math.MaxInt / 4, Step: 1}},
		},
		{
			name:    "linear scale with uneven step",
			field:   Field{ID: "entry.6", Type: FieldLinearScale, Scale: &Scale{Min: 0, Max: 10, Step: 3}},
			wantErr: true,
		},
		{
			name:    "scale on text field",
			field:   Field{ID: "entry.7", Type: FieldShortText, Scale: &Scale{Min: 0, Max: 1, Step: 1}},
			wantErr: true,
		},
		{
			name:    "empty id",
			field:   Field{Type: FieldTime},
			wantErr: true,
		},
		{
			name:    "unknown type",
			field:   Field{ID: "entry.8", Type: "grid"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.field.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidField)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFieldEqual(t *testing.T) {
	a := Field{ID: "entry.1", Type: FieldLinearScale, Label: "Rate", Scale: &Scale{Min: 1, Max: 5, Step: 1}}
	b := a
	b.Scale = &Scale{Min: 1, Max: 5, Step: 1}
	assert.True(t, a.Equal(b))

	b.Scale = &Scale{Min: 1, Max: 10, Step: 1}
	assert.False(t, a.Equal(b))

	c := Field{ID: "entry.2", Type: FieldRadio, Options: []string{"A", "B"}}
	d := c
	d.Options = []string{"B", "A"}
	assert.False(t, c.Equal(d))
}

func TestScale(t *testing.T) {
	s := Scale{Min: 0, Max: 10, Step: 2}
	assert.Equal(t, 6, s.Points())
	assert.True(t, s.Contains(4))
	assert.False(t, s.Contains(5))
	assert.False(t, s.Contains(12))

	tests := []struct {
		name   string
		scale  Scale
		points int
	}{
		{"full int range", Scale{Min: math.MinInt, Max: math.MaxInt, Step: 1}, 0},
		{"overflowing span", Scale{Min: math.MinInt/2 - 1, Max: math.MaxInt/2 + 2, Step: 3}, 0},
		{"count overflow", Scale{Min: 0, Max: math.MaxInt, Step: 1}, 0},
		{"huge step", Scale{Min: math.MinInt / 2, Max: math.MaxInt / 2, Step: math.MaxInt}, 2},
		{"inverted", Scale{Min: 5, Max: 1, Step: 1}, 0},
		{"zero step", Scale{Min: 0, Max: 4, Step: 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.points, tt.scale.Points())
			if tt.points == 0 {
				assert.False(t, tt.scale.Contains(tt.scale.Min))
			}
		})
	}
}

func TestIdentityFromURL(t *testing.T) {
	id := IdentityFromURL("https://docs.google.com/forms/d/e/1FAIpQLSabc123/viewform?usp=sf_link")
	assert.Equal(t, Identity("1FAIpQLSabc123"), id)

	other := IdentityFromURL("https://example.com/survey")
	assert.Len(t, other.String(), 10)
	assert.Equal(t, other, IdentityFromURL("https://example.com/survey"))
	assert.NotEqual(t, other, IdentityFromURL("https://example.com/survey2"))
}

func TestStructureValidateAndEqual(t *testing.T) {
	s := &Structure{
		Identity: "abc",
		URL:      "https://example.com/form",
		Fields: []Field{
			{ID: "entry.1", Type: FieldRadio, Options: []string{"A", "B"}},
			{ID: "entry.2", Type: FieldShortText, Required: true},
		},
		Submission:  Submission{Action: "https://example.com/submit", Method: "POST"},
		ExtractedAt: time.Now(),
	}
	require.NoError(t, s.Validate())
	assert.Len(t, s.Required(), 1)

	f, ok := s.Field("entry.2")
	require.True(t, ok)
	assert.Equal(t, FieldShortText, f.Type)

	later := *s
	later.ExtractedAt = s.ExtractedAt.Add(time.Hour)
	assert.True(t, s.Equal(&later))

	changed := *s
	changed.Fields = append([]Field{}, s.Fields...)
	changed.Fields[0].Options = []string{"A", "B", "C"}
	assert.False(t, s.Equal(&changed))

	dup := *s
	dup.Fields = append(append([]Field{}, s.Fields...), Field{ID: "entry.1", Type: FieldTime})
	assert.ErrorIs(t, dup.Validate(), ErrInvalidField)
}
