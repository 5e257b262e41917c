// Package shortcode derives compact Base62 short codes from a client address
// and the current time.
package shortcode

import (
	"errors"
	"hash/crc32"
	"strconv"
	"time"
)

const base62Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// MaxLength is the longest code Generate can return: 62^6 > 2^32.
const MaxLength = 6

var ErrInvalidCode = errors.New("invalid base62 code")

// Generator is safe for concurrent use. Two calls with the same address in the
// same millisecond return the same code.
type Generator struct {
	now func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// NewGeneratorWithClock is used by tests and tooling that need a fixed clock.
func NewGeneratorWithClock(now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{now: now}
}

func (g *Generator) Generate(clientAddress string) string {
	return EncodeBase62(Checksum(Seed(clientAddress, g.now())))
}

// Seed concatenates the address with the Unix millisecond timestamp.
func Seed(clientAddress string, at time.Time) string {
	return clientAddress + strconv.FormatInt(at.UnixMilli(), 10)
}

// Checksum is CRC-32/IEEE (reflected polynomial 0xEDB88320) over the seed bytes.
func Checksum(seed string) uint32 {
	return crc32.ChecksumIEEE([]byte(seed))
}

func EncodeBase62(n uint32) string {
	if n == 0 {
		return base62Alphabet[:1]
	}

	var buf [MaxLength]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = base62Alphabet[n%62]
		n /= 62
	}
	return string(buf[i:])
}

func DecodeBase62(s string) (uint32, error) {
	if s == "" || len(s) > MaxLength {
		return 0, ErrInvalidCode
	}

	var n uint64
	for i := 0; i < len(s); i++ {
		d := digitValue(s[i])
		if d < 0 {
			return 0, ErrInvalidCode
		}
		n = n*62 + uint64(d)
		if n > 1<<32-1 {
			return 0, ErrInvalidCode
		}
	}
	return uint32(n), nil
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 36
	default:
		return -1
	}
}
