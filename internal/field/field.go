// SPDX-License-Identifier: MIT
package field

import (
	"math/cmplx"
	"math/rand"
	"sync"

	"github.com/charmbracelet/harmonica"
)

// State is the evolution state of a single field.
type State int

const (
	Ground State = iota
	Excited
	Superposition
	Coherent
	Entangled
	Collapsed
)

var stateNames = [...]string{"GROUND", "EXCITED", "SUPERPOSITION", "COHERENT", "ENTANGLED", "COLLAPSED"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Evolution constants.
const (
	excitedLifetime     = 0.1 // seconds before EXCITED decays to GROUND
	collapseProbability = 0.1 // per tick, for SUPERPOSITION
	springFrequency     = 6.0
	springDamping       = 0.8
)

// Field is one oscillating component of the collection.
type Field struct {
	Amplitude complex128 `json:"-"`
	Phase     float64    `json:"phase"`     // radians per second
	Frequency float64    `json:"frequency"` // Hz
	State     State      `json:"state"`

	excitedFor float64
}

// Magnitude returns |Amplitude|.
func (f Field) Magnitude() float64 { return cmplx.Abs(f.Amplitude) }

// Collection holds the fields and a spring-damped intensity that follows a
// target set from classification results. All methods are safe for
// concurrent use.
type Collection struct {
	mu        sync.Mutex
	fields    []Field
	rng       *rand.Rand
	spring    harmonica.Spring
	springDT  float64
	intensity float64
	velocity  float64
	target    float64
}

// NewCollection returns an empty collection whose collapse decisions are
// drawn from a source seeded with seed.
func NewCollection(seed int64) *Collection {
	return &Collection{rng: rand.New(rand.NewSource(seed))}
}

// Add appends f and returns its index.
func (c *Collection) Add(f Field) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fields = append(c.fields, f)
	return len(c.fields) - 1
}

// Len returns the number of fields.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.fields)
}

// Fields returns a copy of every field.
func (c *Collection) Fields() []Field {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Field(nil), c.fields...)
}

// SetState forces field i into s. Out-of-range indices are ignored.
func (c *Collection) SetState(i int, s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i >= 0 && i < len(c.fields) {
		c.fields[i].State = s
		c.fields[i].excitedFor = 0
	}
}

// Excite moves every GROUND field to EXCITED.
func (c *Collection) Excite() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.fields {
		if c.fields[i].State == Ground {
			c.fields[i].State = Excited
			c.fields[i].excitedFor = 0
		}
	}
}

// Entangle marks fields i and j as ENTANGLED.
func (c *Collection) Entangle(i, j int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || j < 0 || i >= len(c.fields) || j >= len(c.fields) {
		return
	}
	c.fields[i].State = Entangled
	c.fields[j].State = Entangled
}

// Superpose appends a SUPERPOSITION field averaging the amplitude, phase and
// frequency of the existing fields. It returns -1 for an empty collection.
func (c *Collection) Superpose() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.fields)
	if n == 0 {
		return -1
	}
	var sum Field
	for _, f := range c.fields {
		sum.Amplitude += f.Amplitude
		sum.Phase += f.Phase
		sum.Frequency += f.Frequency
	}
	scale := 1 / float64(n)
	c.fields = append(c.fields, Field{
		Amplitude: sum.Amplitude * complex(scale, 0),
		Phase:     sum.Phase * scale,
		Frequency: sum.Frequency * scale,
		State:     Superposition,
	})
	return n
}

// SetTarget sets the intensity the spring pulls toward, clamped to [0, 1].
func (c *Collection) SetTarget(target float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = max(0, min(1, target))
}

// Intensity returns the current spring position.
func (c *Collection) Intensity() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.intensity
}

// Tick advances the collection by dt seconds: amplitudes rotate by
// phase*dt, EXCITED fields decay once they have been excited for longer
// than 0.1 s, each SUPERPOSITION field collapses with probability 0.1, and
// the intensity takes one spring step toward the target.
func (c *Collection) Tick(dt float64) {
	if dt <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.fields {
		f := &c.fields[i]
		f.Amplitude *= cmplx.Exp(complex(0, f.Phase*dt))

		switch f.State {
		case Excited:
			f.excitedFor += dt
			if f.excitedFor > excitedLifetime {
				f.State = Ground
				f.excitedFor = 0
			}
		case Superposition:
			if c.rng.Float64() < collapseProbability {
				f.State = Collapsed
			}
		}
	}

	if dt != c.springDT {
		c.spring = harmonica.NewSpring(dt, springFrequency, springDamping)
		c.springDT = dt
	}
	c.intensity, c.velocity = c.spring.Update(c.intensity, c.velocity, c.target)
}
