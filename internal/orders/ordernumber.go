package orders

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"sync"
	"time"
)

const (
	orderNumberPrefix = "DH"
	nodeDigits        = 3
)

// NumberSequence hands out order numbers: "DH", the creation time in
// milliseconds, then Node. Numbers are strictly increasing per sequence, so two
// orders created in the same millisecond still differ; Node keeps replicas apart.
type NumberSequence struct {
	Node string

	mu   sync.Mutex
	last int64
}

// NewNumberSequence returns a sequence with a random three digit node.
func NewNumberSequence() *NumberSequence {
	return &NumberSequence{Node: randomNode()}
}

func randomNode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000))
	if err != nil {
		n = big.NewInt(time.Now().UnixNano() % 1000)
	}
	s := strconv.FormatInt(n.Int64(), 10)
	for len(s) < nodeDigits {
		s = "0" + s
	}
	return s
}

func (s *NumberSequence) Next(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := now.UnixMilli()
	if n <= s.last {
		n = s.last + 1
	}
	s.last = n
	return orderNumberPrefix + strconv.FormatInt(n, 10) + s.Node
}

// Reseed picks a new node, used after the number collided with another replica.
func (s *NumberSequence) Reseed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Node = randomNode()
}
