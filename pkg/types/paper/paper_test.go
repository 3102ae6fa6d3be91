package paper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"plain", "10.1234/abc.def", "10.1234/abc.def", true},
		{"uppercase", "10.1234/ABC.DeF", "10.1234/abc.def", true},
		{"https prefix", "https://doi.org/10.1234/abc", "10.1234/abc", true},
		{"doi prefix", "doi:10.1234/abc", "10.1234/abc", true},
		{"surrounding space", "  10.1234/abc  ", "10.1234/abc", true},
		{"short registrant", "10.123/x", "", false},
		{"empty", "", "", false},
		{"not a doi", "hello world", "", false},
		{"missing suffix", "10.1234/", "", false},
		{"missing prefix", "1234/abc", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeDOI(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
