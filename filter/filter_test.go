package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name        string
		expression  string
		wantErr     bool
		errContains string
	}{
		{
			name:       "valid expression",
			expression: `Availability == "AVAILABLE"`,
		},
		{
			name:        "empty expression",
			expression:  "  ",
			wantErr:     true,
			errContains: "empty expression",
		},
		{
			name:       "invalid syntax",
			expression: `icontains(Title, "unclosed`,
			wantErr:    true,
		},
		{
			name:       "unknown field",
			expression: `Rating > 7`,
			wantErr:    true,
		},
		{
			name:       "not a boolean",
			expression: `Title`,
			wantErr:    true,
		},
		{
			name:       "complex expression",
			expression: `MediaType == "tv" and Season > 1 and (istartsWith(RequestedBy, "al") or Is4k)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Compile(tt.expression)
			if tt.wantErr {
				require.Error(t, err)
				var compErr *CompilationError
				assert.ErrorAs(t, err, &compErr)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expression, f.String())
		})
	}
}

func TestMatch(t *testing.T) {
	row := Request{
		Title:         "Dune: Part Two",
		MediaType:     "movie",
		Availability:  "AVAILABLE",
		RequestStatus: "APPROVED",
		RequestedBy:   "Alice",
		RequestDate:   time.Now().Add(-72 * time.Hour).UTC().Format(time.RFC3339),
	}

	tests := []struct {
		expression string
		want       bool
	}{
		{`icontains(Title, "dune")`, true},
		{`iendsWith(Title, "TWO")`, true},
		{`istartsWith(Title, "DUNE:")`, true},
		{`icontains(Title, "arrakis")`, false},
		{`Title contains "Dune"`, true},
		{`Title contains "dune"`, false},
		{`lower(Title) contains "dune"`, true},
		{`Title startsWith "Dune" and Title endsWith "Two"`, true},
		{`lower(RequestedBy) == "alice"`, true},
		{`upper(MediaType) == "TV"`, false},
		{`daysSince(RequestDate) < 7`, true},
		{`daysSince("not a date") == -1`, true},
		{`Availability == "PENDING" or RequestStatus == "DECLINED"`, false},
		{`Season == 0 and not Is4k`, true},
	}

	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			f, err := Compile(tt.expression)
			require.NoError(t, err)

			got, err := f.Match(row)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompilerCache(t *testing.T) {
	c := NewCompiler(2)

	first, err := c.Compile(`Season > 1`)
	require.NoError(t, err)
	again, err := c.Compile(` Season > 1 `)
	require.NoError(t, err)
	assert.Same(t, first, again)

	_, err = c.Compile(`Season > 2`)
	require.NoError(t, err)
	_, err = c.Compile(`Season > 3`)
	require.NoError(t, err)
	assert.Equal(t, 2, c.cache.Len())

	evicted, err := c.Compile(`Season > 1`)
	require.NoError(t, err)
	assert.NotSame(t, first, evicted)

	_, err = c.Compile("")
	require.Error(t, err)
	assert.Equal(t, 2, c.cache.Len(), "failures are not cached")
}
