package guid

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// UUIDGenerator issues prefix + 32 hex digits of a random UUID.
type UUIDGenerator struct{}

func (UUIDGenerator) NewGUID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Sequence issues prefix + a per-prefix counter, for reproducible runs.
type Sequence struct {
	mu    sync.Mutex
	count map[string]int
}

func NewSequence() *Sequence {
	return &Sequence{count: make(map[string]int)}
}

func (s *Sequence) NewGUID(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.count[prefix]++
	return fmt.Sprintf("%s%d", prefix, s.count[prefix])
}
