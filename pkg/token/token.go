// Package token generates session tokens.
package token

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Source produces ULID session tokens. Tokens generated within the same
// millisecond remain lexicographically increasing, which keeps session
// listings and store indexes ordered by issue time.
type Source struct {
	mu      sync.Mutex
	entropy io.Reader
}

// NewSource seeds a monotonic ULID source from crypto/rand so tokens are
// unpredictable.
func NewSource() *Source {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Source{entropy: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)}
}

// New returns a fresh token string.
func (s *Source) New() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), s.entropy)
	if err != nil {
		// Only possible if time goes backwards or entropy fails.
		panic(err)
	}
	return id.String()
}
