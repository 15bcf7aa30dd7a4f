package tabs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScope(t *testing.T) {
	tests := []struct {
		in   string
		want Scope
	}{
		{"", ScopeCurrentWindow},
		{"current", ScopeCurrentWindow},
		{"Current-Window", ScopeCurrentWindow},
		{"all", ScopeAllWindows},
		{"all-windows", ScopeAllWindows},
	}
	for _, tt := range tests {
		got, err := ParseScope(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseScope("elsewhere")
	assert.Error(t, err)
}

func TestHasGroup(t *testing.T) {
	assert.False(t, Tab{GroupID: NoGroup}.HasGroup())
	assert.True(t, Tab{GroupID: 0}.HasGroup())
	assert.True(t, Tab{GroupID: 42}.HasGroup())
}

func TestGroupIndex(t *testing.T) {
	idx := GroupIndex([]Group{{ID: 1, Title: "Work"}, {ID: 2, Title: "Play"}})
	require.Len(t, idx, 2)
	assert.Equal(t, "Play", idx[2].Title)
	_, ok := idx[3]
	assert.False(t, ok)
}
