package heap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The facade shares one process-wide allocator, so these tests only make
// relative assertions about counters.

func TestMallocFreeRoundTrip(t *testing.T) {
	before := Stats()

	p := Malloc(128)
	require.NotNil(t, p)

	b := Bytes(p, 128)
	for i := range b {
		b[i] = byte(i)
	}
	for i := range b {
		require.Equal(t, byte(i), b[i])
	}

	assert.GreaterOrEqual(t, UsableSize(p), 128)
	Free(p)

	after := Stats()
	assert.Equal(t, before.Mallocs+1, after.Mallocs)
	assert.Equal(t, before.Frees+1, after.Frees)
}

func TestFreeNilIsNoOp(t *testing.T) {
	before := Stats()
	Free(nil)
	after := Stats()
	assert.Equal(t, before.Frees+1, after.Frees, "nil frees are still counted")
	assert.Equal(t, before.FreeBytes, after.FreeBytes)
}

func TestCallocThroughFacade(t *testing.T) {
	p := Calloc(16, 8)
	require.NotNil(t, p)
	for i, v := range Bytes(p, 128) {
		require.Zero(t, v, "byte %d", i)
	}
	Free(p)
}

func TestReallocThroughFacade(t *testing.T) {
	p := Malloc(32)
	require.NotNil(t, p)
	copy(Bytes(p, 4), "abcd")

	p = Realloc(p, 1024)
	require.NotNil(t, p)
	assert.Equal(t, "abcd", string(Bytes(p, 4)))
	Free(p)
}

func TestDumpFreeList(t *testing.T) {
	// Force at least one allocation so a slab exists.
	p := Malloc(8)
	Free(p)

	var sb strings.Builder
	require.NoError(t, DumpFreeList(&sb))
	out := sb.String()
	assert.True(t, strings.HasPrefix(out, "FreeList: "), "got %q", out)
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.Contains(t, out, "[offset:")
}

func TestStatsSnapshot(t *testing.T) {
	p := Malloc(64)
	st := Stats()
	assert.Positive(t, st.HeapSize)
	assert.Positive(t, st.NumSlabs)
	Free(p)
}
