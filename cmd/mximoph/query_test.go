// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mximoph/mximoph/pkg/types"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "short string unchanged", in: "proteins", max: 30, want: "proteins"},
		{name: "exact length unchanged", in: "abcde", max: 5, want: "abcde"},
		{name: "long ascii gets ellipsis", in: "abcdefghij", max: 8, want: "abcde..."},
		{name: "multibyte counts runes not bytes", in: "Enzymkatalyse für die Chemie üüüü", max: 20, want: "Enzymkatalyse für..."},
		{name: "cjk title", in: "タンパク質構造予測の研究", max: 10, want: "タンパク質構造..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.max)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got), "truncation must not split a rune")
			assert.LessOrEqual(t, len([]rune(got)), tt.max)
		})
	}
}

func TestFormatQueryOutputMultibyte(t *testing.T) {
	results := []types.ScoredChunk{
		{
			Chunk: types.Chunk{
				ID:         "c1",
				DocumentID: "doc",
				Content:    strings.Repeat("ü", 80),
				Position:   0,
			},
			Score:         0.91,
			DocumentTitle: strings.Repeat("ß", 40),
		},
	}

	var out strings.Builder
	require.NoError(t, formatQueryOutput(&out, results, false))

	text := out.String()
	assert.True(t, utf8.ValidString(text))
	assert.Contains(t, text, strings.Repeat("ß", 27)+"...")
	assert.Contains(t, text, strings.Repeat("ü", 57)+"...")
	assert.Contains(t, text, "1 results")
}
