package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSelectors(t *testing.T) {
	// PUSH1 0x80, PUSH4 0xa9059cbb, PUSH4 0x70a08231
	code := []byte{
		0x60, 0x80,
		0x63, 0xa9, 0x05, 0x9c, 0xbb,
		0x14,
		0x63, 0x70, 0xa0, 0x82, 0x31,
	}
	selectors, err := ExtractSelectors(code)
	require.NoError(t, err)
	require.Len(t, selectors, 2)
	assert.Equal(t, "0xa9059cbb", selectors[0].String())
	assert.Equal(t, "0x70a08231", selectors[1].String())
}

func TestExtractSelectors_Dedup(t *testing.T) {
	// The same PUSH4 immediate at two distinct offsets yields one selector.
	code := []byte{
		0x63, 0xaa, 0xbb, 0xcc, 0xdd,
		0x00, 0x00,
		0x63, 0xaa, 0xbb, 0xcc, 0xdd,
	}
	selectors, err := ExtractSelectors(code)
	require.NoError(t, err)
	require.Len(t, selectors, 1)
	assert.Equal(t, "0xaabbccdd", selectors[0].String())
}

func TestExtractSelectors_TruncatedPush(t *testing.T) {
	// PUSH4 with fewer than 4 bytes remaining is not a candidate.
	code := []byte{0x63, 0xaa, 0xbb, 0xcc}
	_, err := ExtractSelectors(code)
	assert.ErrorIs(t, err, ErrNoSelectors)
}

func TestExtractSelectors_Empty(t *testing.T) {
	_, err := ExtractSelectors(nil)
	assert.ErrorIs(t, err, ErrNoSelectors)

	_, err = ExtractSelectors([]byte{0x60, 0x80, 0x60, 0x40})
	assert.ErrorIs(t, err, ErrNoSelectors)
}

func TestExtractSelectors_FalsePositiveFromData(t *testing.T) {
	// A 0x63 byte inside another push's operand still counts: the scan is
	// a flat walk, not a disassembly. Documents the known limitation.
	code := []byte{
		// PUSH8 with 0x63 as its third operand byte
		0x67, 0x01, 0x02, 0x63, 0x11, 0x22, 0x33, 0x44, 0x55,
	}
	selectors, err := ExtractSelectors(code)
	require.NoError(t, err)
	require.Len(t, selectors, 1)
	assert.Equal(t, "0x11223344", selectors[0].String())
}
