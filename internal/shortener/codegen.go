package shortener

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"math/big"

	"github.com/google/uuid"
)

// DefaultCodeLength is used when no positive length is requested.
const DefaultCodeLength = 6

// MaxCodeLength bounds both generated and vanity codes.
const MaxCodeLength = 255

// Alphabet lists every character a generated code may contain.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789abcdefghijklmnopqrstuvwxyz"

// CodeGenerator produces short code candidates. Uniqueness is checked by the caller.
type CodeGenerator interface {
	Generate(length int) (string, error)
}

// Generator picks characters with crypto/rand from Alphabet extended by the
// hex digits of a freshly minted UUID.
type Generator struct {
	defaultLength int
	random        io.Reader
}

// NewGenerator creates a generator. A non-positive defaultLength falls back to DefaultCodeLength.
func NewGenerator(defaultLength int) *Generator {
	if defaultLength <= 0 {
		defaultLength = DefaultCodeLength
	}

	return &Generator{
		defaultLength: defaultLength,
		random:        rand.Reader,
	}
}

// Generate returns a random code of the given length, or of the default length
// when length is not positive.
func (g *Generator) Generate(length int) (string, error) {
	if length <= 0 {
		length = g.defaultLength
	}

	id, err := uuid.NewRandomFromReader(g.random)
	if err != nil {
		return "", err
	}

	pool := Alphabet + hex.EncodeToString(id[:])
	size := big.NewInt(int64(len(pool)))

	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(g.random, size)
		if err != nil {
			return "", err
		}

		code[i] = pool[n.Int64()]
	}

	return string(code), nil
}

// Compile-time check.
var _ CodeGenerator = (*Generator)(nil)
