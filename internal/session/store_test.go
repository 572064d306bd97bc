package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutGetTake(t *testing.T) {
	st := NewStore()

	st.Put(&Session{ReaderID: "r1"})
	st.Put(&Session{ReaderID: "r2", Filter: "a"})
	st.Put(&Session{ReaderID: "r2", Filter: "b"})
	assert.Equal(t, 2, st.Len())

	s, ok := st.Get("r2")
	require.True(t, ok)
	assert.Equal(t, "b", s.Filter)

	s, ok = st.Take("r1")
	require.True(t, ok)
	assert.Equal(t, "r1", s.ReaderID)
	assert.Equal(t, 1, st.Len())

	_, ok = st.Take("r1")
	assert.False(t, ok)
	_, ok = st.Get("missing")
	assert.False(t, ok)
}
