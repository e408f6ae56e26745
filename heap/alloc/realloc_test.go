package alloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillPayload(p unsafe.Pointer, n int, seed byte) {
	b := unsafe.Slice((*byte)(p), n)
	for i := range b {
		b[i] = seed + byte(i)
	}
}

func checkPayload(t *testing.T, p unsafe.Pointer, n int, seed byte) {
	t.Helper()
	b := unsafe.Slice((*byte)(p), n)
	for i := range b {
		require.Equal(t, seed+byte(i), b[i], "payload byte %d", i)
	}
}

func TestReallocGrowPreservesContents(t *testing.T) {
	a := newTestAllocator(t, testSlab)

	p := a.Malloc(64)
	require.NotNil(t, p)
	fillPayload(p, 64, 0x11)

	q := a.Realloc(p, 4096)
	require.NotNil(t, q)
	checkPayload(t, q, 64, 0x11)
	assert.GreaterOrEqual(t, a.UsableSize(q), 4096)

	a.Free(q)
	assertInvariants(t, a)
}

func TestReallocShrinkTruncates(t *testing.T) {
	a := newTestAllocator(t, testSlab)

	p := a.Malloc(256)
	require.NotNil(t, p)
	fillPayload(p, 256, 0x40)

	q := a.Realloc(p, 16)
	require.NotNil(t, q)
	checkPayload(t, q, 16, 0x40)
	assert.GreaterOrEqual(t, a.UsableSize(q), 16)

	a.Free(q)
	assertInvariants(t, a)
}

func TestReallocNilBehavesAsMalloc(t *testing.T) {
	a := newTestAllocator(t, testSlab)

	p := a.Realloc(nil, 128)
	require.NotNil(t, p)
	assert.GreaterOrEqual(t, a.UsableSize(p), 128)

	st := a.Stats()
	assert.Equal(t, uint64(1), st.Reallocs)
	assert.Zero(t, st.Mallocs)

	a.Free(p)
	assertInvariants(t, a)
}

func TestReallocFreesOldBlock(t *testing.T) {
	a := newTestAllocator(t, testSlab)

	p := a.Malloc(64)
	baseline := freeBytes(a)

	q := a.Realloc(p, 512)
	require.NotNil(t, q)
	a.Free(q)

	assert.Equal(t, baseline+uint64(64+48), freeBytes(a),
		"old block must return to the free list")
	assertInvariants(t, a)
}

func TestCallocZeroFills(t *testing.T) {
	a := newTestAllocator(t, testSlab)

	// Dirty a block, free it, and calloc the same size: the reused bytes
	// (including the stale free-list links) must come back zeroed.
	p := a.Malloc(256)
	require.NotNil(t, p)
	fillPayload(p, 256, 0xFF)
	a.Free(p)

	q := a.Calloc(8, 32)
	require.NotNil(t, q)
	b := unsafe.Slice((*byte)(q), 256)
	for i, v := range b {
		require.Zero(t, v, "calloc byte %d not zeroed", i)
	}

	a.Free(q)
	assertInvariants(t, a)
}

func TestCallocOverflowRejected(t *testing.T) {
	a := newTestAllocator(t, testSlab)

	const half = int(^uint(0)>>1)/2 + 1
	assert.Nil(t, a.Calloc(half, 4), "overflowing product must be rejected")
	assert.Nil(t, a.Calloc(-1, 8))
	assert.Nil(t, a.Calloc(8, -1))

	assert.Zero(t, a.Stats().NumSlabs)
}

func TestUsableSizeNil(t *testing.T) {
	a := newTestAllocator(t, testSlab)
	assert.Zero(t, a.UsableSize(nil))
}
