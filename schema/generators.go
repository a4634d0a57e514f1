package schema

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/bits"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// IDGenerator produces values for properties tagged with generate:<name>.
// Values are coerced to the property type before they are set.
// Implementations must be safe for concurrent use.
type IDGenerator interface {
	Generate() (any, error)
	Type() string
}

type funcGenerator struct {
	name string
	fn   func() (any, error)
}

func (g funcGenerator) Generate() (any, error) { return g.fn() }
func (g funcGenerator) Type() string { return g.name }

// NewGeneratorFunc adapts fn to an IDGenerator reporting name as its type.
func NewGeneratorFunc(name string, fn func() (any, error)) IDGenerator {
	return funcGenerator{name: name, fn: fn}
}

// UUIDGenerator returns a generator of random (version 4) uuid.UUID values.
func UUIDGenerator() IDGenerator {
	return NewGeneratorFunc("uuid", func() (any, error) {
		id, err := uuid.NewRandom()
		if err != nil {
			return nil, fmt.Errorf("uuid: %w", err)
		}
		return id, nil
	})
}

// ULIDGenerator returns a generator of ulid.ULID values that sort in
// generation order, including within one millisecond.
func ULIDGenerator() IDGenerator {
	var mu sync.Mutex
	entropy := ulid.Monotonic(rand.Reader, 0)

	return NewGeneratorFunc("ulid", func() (any, error) {
		mu.Lock()
		defer mu.Unlock()
		id, err := ulid.New(ulid.Now(), entropy)
		if err != nil {
			return nil, fmt.Errorf("ulid: %w", err)
		}
		return id, nil
	})
}

// =========================================================================
// Snowflake
// =========================================================================

const (
	snowflakeNodeBits     = 10
	snowflakeSequenceBits = 12
	snowflakeMaxNode      = 1<<snowflakeNodeBits - 1
	snowflakeMaxSequence  = 1<<snowflakeSequenceBits - 1
)

// SnowflakeEpoch is the zero point of snowflake timestamps.
var SnowflakeEpoch = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

var errClockBackwards = errors.New("snowflake: clock moved backwards")

// SnowflakeGenerator produces int64 IDs laid out as
// 41 bits milliseconds since SnowflakeEpoch | 10 bits node | 12 bits sequence.
type SnowflakeGenerator struct {
	mu       sync.Mutex
	node     int64
	lastMs   int64
	sequence int64
	now      func() time.Time
}

// NewSnowflakeGenerator creates a generator for node, which is masked to
// 10 bits.
func NewSnowflakeGenerator(node int64) *SnowflakeGenerator {
	return &SnowflakeGenerator{node: node & snowflakeMaxNode, now: time.Now}
}

func (g *SnowflakeGenerator) Generate() (any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().Sub(SnowflakeEpoch).Milliseconds()
	switch {
	case ms < g.lastMs:
		return nil, errClockBackwards
	case ms == g.lastMs:
		g.sequence = (g.sequence + 1) & snowflakeMaxSequence
		if g.sequence == 0 {
			// Sequence exhausted for this millisecond
			for ms <= g.lastMs {
				ms = g.now().Sub(SnowflakeEpoch).Milliseconds()
			}
		}
	default:
		g.sequence = 0
	}
	g.lastMs = ms

	return ms<<(snowflakeNodeBits+snowflakeSequenceBits) | g.node<<snowflakeSequenceBits | g.sequence, nil
}

func (g *SnowflakeGenerator) Type() string {
	return "snowflake"
}

// =========================================================================
// NanoID
// =========================================================================

const nanoIDAlphabet = "_-0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NanoIDGenerator produces random strings drawn uniformly from an alphabet.
type NanoIDGenerator struct {
	size     int
	alphabet string
	mask     byte
}

// NewNanoIDGenerator creates a generator of size-character IDs. Zero values
// select 21 characters of the URL-safe alphabet. The alphabet must hold
// between 2 and 256 characters.
func NewNanoIDGenerator(size int, alphabet string) (*NanoIDGenerator, error) {
	if size <= 0 {
		size = 21
	}
	if alphabet == "" {
		alphabet = nanoIDAlphabet
	}
	if len(alphabet) < 2 || len(alphabet) > 256 {
		return nil, fmt.Errorf("nanoid: alphabet must hold 2 to 256 characters, got %d", len(alphabet))
	}

	// Smallest all-ones mask covering every alphabet index
	mask := byte(1<<bits.Len(uint(len(alphabet)-1)) - 1)
	return &NanoIDGenerator{size: size, alphabet: alphabet, mask: mask}, nil
}

func (g *NanoIDGenerator) Generate() (any, error) {
	id := make([]byte, 0, g.size)
	buf := make([]byte, g.size*2)

	for len(id) < g.size {
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("nanoid: %w", err)
		}
		for _, b := range buf {
			// Reject out-of-range indexes to keep the distribution uniform
			if idx := int(b & g.mask); idx < len(g.alphabet) {
				id = append(id, g.alphabet[idx])
				if len(id) == g.size {
					break
				}
			}
		}
	}
	return string(id), nil
}

func (g *NanoIDGenerator) Type() string {
	return "nanoid"
}

// =========================================================================
// Registry
// =========================================================================

// GeneratorRegistry maps the names used in generate:<name> tags to
// generators. Each Cache owns one.
type GeneratorRegistry struct {
	mu         sync.RWMutex
	generators map[string]IDGenerator
}

// NewGeneratorRegistry returns a registry preloaded with uuid, ulid,
// snowflake (node 1) and nanoid.
func NewGeneratorRegistry() *GeneratorRegistry {
	nanoID, _ := NewNanoIDGenerator(0, "")

	return &GeneratorRegistry{
		generators: map[string]IDGenerator{
			"uuid":      UUIDGenerator(),
			"ulid":      ULIDGenerator(),
			"snowflake": NewSnowflakeGenerator(1),
			"nanoid":    nanoID,
		},
	}
}

// Register adds or replaces the generator for name.
func (r *GeneratorRegistry) Register(name string, generator IDGenerator) {
	r.mu.Lock()
	r.generators[name] = generator
	r.mu.Unlock()
}

func (r *GeneratorRegistry) Get(name string) (IDGenerator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gen, ok := r.generators[name]
	return gen, ok
}

// Names returns the registered generator names in sorted order.
func (r *GeneratorRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Generate produces a value from the generator registered as name.
func (r *GeneratorRegistry) Generate(name string) (any, error) {
	gen, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown generator %q", name)
	}
	return gen.Generate()
}
