package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"simple title", "The Great Gatsby", "the-great-gatsby"},
		{"accented characters", "Les Misérables", "les-miserables"},
		{"punctuation", "Crime & Punishment!", "crime-punishment"},
		{"extra whitespace", "  War   and   Peace  ", "war-and-peace"},
		{"mixed case with numbers", "Catch-22", "catch-22"},
		{"only punctuation", "!!!", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Generate(tt.title))
		})
	}
}
