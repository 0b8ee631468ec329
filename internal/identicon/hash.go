package identicon

import (
	"context"
	"crypto/sha256"
	"fmt"
	"hash"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
)

// Bits is an ordered sequence of '0'/'1' symbols derived from a digest.
type Bits string

// Len returns the number of symbols.
func (b Bits) Len() int { return len(b) }

// Digest selects the 256-bit digest behind a Hasher.
type Digest int

const (
	// SHA256 matches the reference web renderer pixel for pixel.
	SHA256 Digest = iota
	BLAKE2b256
	BLAKE3

	digestCount = iota
)

type digestFactory struct {
	name      string
	newHasher func() hash.Hash
}

var digestFactories = [digestCount]digestFactory{
	{name: "sha256", newHasher: sha256.New},
	// New256 only fails for keys longer than 64 bytes.
	{name: "blake2b", newHasher: func() hash.Hash { h, _ := blake2b.New256(nil); return h }},
	{name: "blake3", newHasher: func() hash.Hash { return blake3.New() }},
}

func (d Digest) String() string {
	if d < 0 || int(d) >= digestCount {
		return "digest(" + strconv.Itoa(int(d)) + ")"
	}
	return digestFactories[d].name
}

// ParseDigest maps a digest name to a Digest. The empty string means SHA256.
func ParseDigest(name string) (Digest, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return SHA256, nil
	}
	for i, f := range digestFactories {
		if f.name == name {
			return Digest(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDigest, name)
}

// Hasher turns an input string into a bit sequence.
// Hash is the only operation in the pipeline that may block.
type Hasher interface {
	Hash(ctx context.Context, input string) (Bits, error)
}

// DigestHasher hashes the UTF-8 bytes of the input with a fixed digest.
type DigestHasher struct {
	Digest Digest
}

func NewHasher(d Digest) *DigestHasher { return &DigestHasher{Digest: d} }

func (h *DigestHasher) Hash(ctx context.Context, input string) (Bits, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrHashFailure, err)
	}
	d := h.Digest
	if d < 0 || int(d) >= digestCount {
		return "", fmt.Errorf("%w: %w", ErrHashFailure, ErrUnknownDigest)
	}
	hh := digestFactories[d].newHasher()
	if _, err := hh.Write([]byte(input)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashFailure, err)
	}
	sum := hh.Sum(nil)
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrHashFailure, err)
	}
	return EncodeDigest(sum), nil
}

// EncodeDigest renders each byte in base 2 without leading zeros, padded to
// at least two symbols, and concatenates the tokens in byte order.
// 0x00 -> "00", 0x01 -> "01", 0x05 -> "101", 0xff -> "11111111".
func EncodeDigest(sum []byte) Bits {
	var sb strings.Builder
	sb.Grow(len(sum) * 8)
	for _, c := range sum {
		if c < 2 {
			sb.WriteByte('0')
		}
		sb.WriteString(strconv.FormatUint(uint64(c), 2))
	}
	return Bits(sb.String())
}
