package identicon_test

import (
	"context"
	"crypto/sha256"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rook-computer/identicon/internal/identicon"
)

func TestEncodeDigest(t *testing.T) {
	testCases := []struct {
		name string
		sum  []byte
		want identicon.Bits
	}{
		{"zero pads to two", []byte{0x00}, "00"},
		{"one pads to two", []byte{0x01}, "01"},
		{"two fits", []byte{0x02}, "10"},
		{"five is three symbols", []byte{0x05}, "101"},
		{"ff is eight symbols", []byte{0xff}, "11111111"},
		{"concatenated in byte order", []byte{0x03, 0x00, 0x80}, "110010000000"},
		{"empty", nil, ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, identicon.EncodeDigest(tc.sum))
		})
	}
}

func TestHashReferenceInput(t *testing.T) {
	h := identicon.NewHasher(identicon.SHA256)
	bits, err := h.Hash(context.Background(), "test")
	require.NoError(t, err)
	require.GreaterOrEqual(t, bits.Len(), identicon.GridSize)
	assert.Equal(t, identicon.Bits("10011111100001101101"), bits[:20])

	sum := sha256.Sum256([]byte("test"))
	assert.Equal(t, identicon.EncodeDigest(sum[:]), bits)
}

func TestHashDeterministic(t *testing.T) {
	inputs := []string{"", "test", "hello", "ünïcødé", strings.Repeat("x", 4096)}
	for _, d := range []identicon.Digest{identicon.SHA256, identicon.BLAKE2b256, identicon.BLAKE3} {
		h := identicon.NewHasher(d)
		for _, in := range inputs {
			a, err := h.Hash(context.Background(), in)
			require.NoError(t, err)
			b, err := h.Hash(context.Background(), in)
			require.NoError(t, err)
			assert.Equal(t, a, b, "%s(%q)", d, in)
			assert.GreaterOrEqual(t, a.Len(), 64, "%s(%q)", d, in)
		}
	}
}

func TestHashDigestsDiffer(t *testing.T) {
	a, err := identicon.NewHasher(identicon.SHA256).Hash(context.Background(), "test")
	require.NoError(t, err)
	b, err := identicon.NewHasher(identicon.BLAKE3).Hash(context.Background(), "test")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHashCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := identicon.NewHasher(identicon.SHA256).Hash(ctx, "test")
	require.Error(t, err)
	assert.True(t, errors.Is(err, identicon.ErrHashFailure))
}

func TestParseDigest(t *testing.T) {
	d, err := identicon.ParseDigest("")
	require.NoError(t, err)
	assert.Equal(t, identicon.SHA256, d)

	d, err = identicon.ParseDigest("BLAKE3")
	require.NoError(t, err)
	assert.Equal(t, identicon.BLAKE3, d)
	assert.Equal(t, "blake3", d.String())

	_, err = identicon.ParseDigest("md5")
	assert.ErrorIs(t, err, identicon.ErrUnknownDigest)
}

func TestRotate(t *testing.T) {
	testCases := []struct {
		name   string
		in     identicon.Bits
		offset int
		want   identicon.Bits
	}{
		{"identity", "10110", 0, "10110"},
		{"left by two", "10110", 2, "11010"},
		{"full turn", "10110", 5, "10110"},
		{"wraps past length", "10110", 7, "11010"},
		{"negative rotates right", "10110", -1, "01011"},
		{"negative wraps", "10110", -6, "01011"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := identicon.Rotate(tc.in, tc.offset)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRotateEmpty(t *testing.T) {
	_, err := identicon.Rotate("", 3)
	assert.ErrorIs(t, err, identicon.ErrEmptySequence)
}

func TestRotateRoundTrip(t *testing.T) {
	b, err := identicon.NewHasher(identicon.SHA256).Hash(context.Background(), "round trip")
	require.NoError(t, err)
	l := b.Len()
	for k := -2 * l; k <= 2*l; k += 7 {
		fwd, err := identicon.Rotate(b, k)
		require.NoError(t, err)
		m := ((k % l) + l) % l
		back, err := identicon.Rotate(fwd, l-m)
		require.NoError(t, err)
		require.Equal(t, b, back, "k=%d", k)
	}
}

func TestReshape(t *testing.T) {
	g, err := identicon.Reshape("100111111000011" + "0101")
	require.NoError(t, err)
	assert.Equal(t, identicon.Grid{
		{1, 0, 0, 1, 1},
		{1, 1, 1, 1, 0},
		{0, 0, 0, 1, 1},
	}, g)
	assert.Equal(t, "10011/11110/00011", g.String())
}

func TestReshapeMalformed(t *testing.T) {
	_, err := identicon.Reshape("10101")
	assert.ErrorIs(t, err, identicon.ErrMalformedBits)

	_, err = identicon.Reshape("1010110101x0101")
	assert.ErrorIs(t, err, identicon.ErrMalformedBits)
}

func TestTransposeAndMirror(t *testing.T) {
	g := identicon.Grid{
		{1, 0, 0, 1, 1},
		{1, 1, 1, 1, 0},
		{0, 0, 0, 1, 1},
	}
	h := g.Transpose()
	assert.Equal(t, identicon.Half{{1, 1, 0}, {0, 1, 0}, {0, 1, 0}, {1, 1, 1}, {1, 0, 1}}, h)
	assert.Equal(t, g, h.Grid())

	p := h.Mirror()
	assert.Equal(t, identicon.Pattern{
		{1, 1, 0, 1, 1},
		{0, 1, 0, 1, 0},
		{0, 1, 0, 1, 0},
		{1, 1, 1, 1, 1},
		{1, 0, 1, 0, 1},
	}, p)
	assert.True(t, p.Symmetric())
	assert.Equal(t, 15, p.Filled())
}

func TestBuildMatrixReference(t *testing.T) {
	bits, err := identicon.NewHasher(identicon.SHA256).Hash(context.Background(), "test")
	require.NoError(t, err)

	p0, err := identicon.BuildMatrix(bits)
	require.NoError(t, err)
	assert.Equal(t, identicon.Pattern{
		{1, 1, 0, 1, 1},
		{0, 1, 0, 1, 0},
		{0, 1, 0, 1, 0},
		{1, 1, 1, 1, 1},
		{1, 0, 1, 0, 1},
	}, p0)

	// first pattern row mirrors the first reshaped column
	g, err := identicon.Reshape(bits)
	require.NoError(t, err)
	assert.Equal(t, [5]uint8{g[0][0], g[1][0], g[2][0], g[1][0], g[0][0]}, p0[0])

	rotated, err := identicon.Rotate(bits, 5)
	require.NoError(t, err)
	p5, err := identicon.BuildMatrix(rotated)
	require.NoError(t, err)
	assert.Equal(t, identicon.Pattern{
		{1, 0, 0, 0, 1},
		{1, 0, 1, 0, 1},
		{1, 0, 1, 0, 1},
		{1, 1, 0, 1, 1},
		{0, 1, 1, 1, 0},
	}, p5)
	assert.NotEqual(t, p0, p5)
}

func TestBuildMatrixSymmetricForEveryRotation(t *testing.T) {
	for _, in := range []string{"test", "hello", "identicon", ""} {
		bits, err := identicon.NewHasher(identicon.SHA256).Hash(context.Background(), in)
		require.NoError(t, err)
		for k := 0; k < identicon.GridSize; k++ {
			r, err := identicon.Rotate(bits, k)
			require.NoError(t, err)
			if k == 0 {
				require.Equal(t, bits, r)
			}
			p, err := identicon.BuildMatrix(r)
			require.NoError(t, err)
			for row := range p {
				require.Equal(t, p[row][0], p[row][4], "%q k=%d row=%d", in, k, row)
				require.Equal(t, p[row][1], p[row][3], "%q k=%d row=%d", in, k, row)
			}
		}
	}
}

func TestToggle(t *testing.T) {
	var h identicon.Half
	h2, err := h.Toggle(0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), h2[0][0])
	assert.Equal(t, uint8(0), h[0][0], "receiver is not modified")

	p := h2.Mirror()
	assert.Equal(t, uint8(1), p[0][0])
	assert.Equal(t, uint8(1), p[0][4])
	assert.Equal(t, 2, p.Filled())

	_, err = h.Toggle(5, 0)
	assert.ErrorIs(t, err, identicon.ErrCellOutOfRange)
	_, err = h.Toggle(0, 3)
	assert.ErrorIs(t, err, identicon.ErrCellOutOfRange)
}

func TestParseGrid(t *testing.T) {
	g, err := identicon.ParseGrid("10011/11110/00011")
	require.NoError(t, err)
	assert.Equal(t, "10011/11110/00011", g.String())

	g2, err := identicon.ParseGrid("1,0,0,1,1, 1,1,1,1,0, 0,0,0,1,1")
	require.NoError(t, err)
	assert.Equal(t, g, g2)

	_, err = identicon.ParseGrid("1001111110")
	assert.ErrorIs(t, err, identicon.ErrMalformedBits)
}

func TestPatternString(t *testing.T) {
	p := identicon.FromGrid(identicon.Grid{{1, 0, 0, 0, 0}, {0, 0, 0, 0, 0}, {0, 0, 0, 0, 1}})
	assert.Equal(t, "#...#\n.....\n.....\n.....\n..#..", p.String())
}
