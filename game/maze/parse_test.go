package maze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFor(t *testing.T) {
	tests := []struct {
		filename string
		want     Format
		ok       bool
	}{
		{"sample.json", FormatJSON, true},
		{"SAMPLE.JSON", FormatJSON, true},
		{"cave.yaml", FormatYAML, true},
		{"cave.yml", FormatYAML, true},
		{"notes.txt", "", false},
		{"sample", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, ok := FormatFor(tt.filename)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "sample.json", NormalizeName("sample"))
	assert.Equal(t, "sample.json", NormalizeName("sample.json"))
	assert.Equal(t, "cave.yml", NormalizeName("cave.yml"))
	assert.Equal(t, "notes.txt.json", NormalizeName("notes.txt"))
}

func TestParse(t *testing.T) {
	t.Run("json with numeric ids", func(t *testing.T) {
		data := []byte(`[
			{"id": 0, "text": "Start", "directions": {"north": 1}},
			{"id": 1, "text": "End", "directions": {}}
		]`)
		g, err := Parse("sample.json", FormatJSON, data)
		require.NoError(t, err)
		assert.Equal(t, "Start", g.Entry().Text)
		assert.Equal(t, RoomID("1"), g.Entry().Directions["north"])
	})

	t.Run("yaml", func(t *testing.T) {
		data := []byte(`
- id: hall
  text: Hall
  directions:
    down: cellar
- id: cellar
  text: Cellar
`)
		g, err := Parse("cave.yaml", FormatYAML, data)
		require.NoError(t, err)
		assert.Equal(t, RoomID("hall"), g.Entry().ID)
		cellar, ok := g.Room("cellar")
		require.True(t, ok)
		assert.Empty(t, cellar.Directions)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := Parse("bad.json", FormatJSON, []byte(`{"id":`))
		assert.Error(t, err)
	})

	t.Run("empty list", func(t *testing.T) {
		_, err := Parse("empty.json", FormatJSON, []byte(`[]`))
		assert.ErrorIs(t, err, ErrEmptyGraph)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := Parse("x.toml", Format("toml"), []byte(`x`))
		assert.Error(t, err)
	})
}
