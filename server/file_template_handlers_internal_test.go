package server

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestInitial(t *testing.T) {
	tests := map[string]string{
		"reader":  "R",
		"Émilie":  "É",
		"ñandú":   "Ñ",
		"  ada":   "A",
		"":        "?",
		"   ":     "?",
		"\xffbad": "?",
	}
	for name, want := range tests {
		got := initial(name)
		require.Equal(t, want, got, "initial(%q)", name)
		require.True(t, utf8.ValidString(got))
	}
}
