// Package prng implements the modified TinyMT32 generator used by the game to
// roll timeless jewel transformations.
//
// The variant keeps a five word state: word 0 counts state transitions and
// words 1-4 hold the generator state proper. All arithmetic is performed on
// uint32 so that wraparound matches the game bit for bit.
package prng

import "fmt"

// =============================================================================
// Constants
// =============================================================================

const (
	initState1 uint32 = 0x40336050
	initState2 uint32 = 0xCFA3723C
	initState3 uint32 = 0x3CAC5F6F
	initState4 uint32 = 0x3793FDFF

	mat1 uint32 = 0x8F7011EE
	mat2 uint32 = 0xFC78FF1F
	tmat uint32 = 0x3793FDFF

	mask31 uint32 = 0x7FFFFFFF

	alphaMultiplier uint32 = 0x0019660D
	bravoMultiplier uint32 = 0x5D588B65

	alphaRounds  = 5
	bravoRounds  = 4
	warmupRounds = 8
)

// =============================================================================
// TinyMT32
// =============================================================================

// TinyMT32 is a single-owner generator instance. It is not safe for
// concurrent use and must not be shared between selections.
type TinyMT32 struct {
	state [5]uint32
}

// New seeds a generator with the passive node id and the jewel seed, the
// layout the game uses for every timeless jewel roll.
func New(nodeID, seed uint32) *TinyMT32 {
	return NewFromSeeds(nodeID, seed)
}

// NewFromSeeds seeds a generator from an arbitrary list of words.
func NewFromSeeds(seeds ...uint32) *TinyMT32 {
	t := &TinyMT32{}
	t.initialize(seeds)
	return t
}

// slot maps a round-robin index onto state words 1-4.
func slot(index uint32) int {
	return int(index%4) + 1
}

func alpha(v uint32) uint32 {
	return (v ^ (v >> 27)) * alphaMultiplier
}

func bravo(v uint32) uint32 {
	return (v ^ (v >> 27)) * bravoMultiplier
}

func (t *TinyMT32) initialize(seeds []uint32) {
	t.state = [5]uint32{0, initState1, initState2, initState3, initState4}

	index := uint32(1)

	for _, seed := range seeds {
		round := alpha(t.state[slot(index)] ^ t.state[slot(index+1)] ^ t.state[slot(index+3)])
		t.state[slot(index+1)] += round
		round += seed + index
		t.state[slot(index+2)] += round
		t.state[slot(index)] = round
		index = (index + 1) % 4
	}

	for i := 0; i < alphaRounds; i++ {
		round := alpha(t.state[slot(index)] ^ t.state[slot(index+1)] ^ t.state[slot(index+3)])
		t.state[slot(index+1)] += round
		round += index
		t.state[slot(index+2)] += round
		t.state[slot(index)] = round
		index = (index + 1) % 4
	}

	for i := 0; i < bravoRounds; i++ {
		round := bravo(t.state[slot(index)] + t.state[slot(index+1)] + t.state[slot(index+3)])
		t.state[slot(index+1)] ^= round
		round -= index
		t.state[slot(index+2)] ^= round
		t.state[slot(index)] = round
		index = (index + 1) % 4
	}

	for i := 0; i < warmupRounds; i++ {
		t.nextState()
	}
}

func (t *TinyMT32) nextState() {
	a := t.state[4]
	b := (t.state[1] & mask31) ^ t.state[2] ^ t.state[3]

	a ^= a << 1
	b ^= (b >> 1) ^ a

	t.state[1] = t.state[2]
	t.state[2] = t.state[3]
	t.state[3] = a ^ (b << 10)
	t.state[4] = b

	if b&1 != 0 {
		t.state[2] ^= mat1
		t.state[3] ^= mat2
	}

	t.state[0]++
}

func (t *TinyMT32) temper() uint32 {
	a := t.state[4]
	b := t.state[1] + (t.state[3] >> 8)

	a ^= b
	if b&1 != 0 {
		a ^= tmat
	}
	return a
}

// =============================================================================
// Output
// =============================================================================

// Uint32 advances the state and returns the next tempered word.
func (t *TinyMT32) Uint32() uint32 {
	t.nextState()
	return t.temper()
}

// Float64 returns a value in [0, 1).
func (t *TinyMT32) Float64() float64 {
	return float64(t.Uint32()) / (1 << 32)
}

// Range returns a value in [0, exclusiveMax). Zero and one both yield 0
// without consuming output.
//
// The nested loop mirrors the game's Generate(uint) exactly, including the
// rejection of the incomplete top bucket; the number of words consumed per
// call must not change or later draws from the same instance diverge.
func (t *TinyMT32) Range(exclusiveMax uint32) uint32 {
	if exclusiveMax <= 1 {
		return 0
	}

	maximum := exclusiveMax - 1
	var roundState, value uint32

	for {
		for {
			value = t.Uint32() | (2 * (value << 31))
			roundState = 0xFFFFFFFF | (2 * (roundState << 31))
			if roundState >= maximum {
				break
			}
		}
		if value/exclusiveMax < roundState/exclusiveMax || roundState%exclusiveMax == maximum {
			break
		}
	}

	return value % exclusiveMax
}

// RangeInclusive returns a value in [min, max] using the game's signed offset
// conversion. The bounds are shifted by 2^31, rolled, and shifted back.
func (t *TinyMT32) RangeInclusive(min, max uint32) uint32 {
	const offset uint32 = 0x80000000

	a := min + offset
	b := max + offset
	roll := t.Range(b - a + 1)
	return roll + a + offset
}

// State returns a copy of the internal state: the transition counter followed
// by the four state words.
func (t *TinyMT32) State() [5]uint32 {
	return t.state
}

func (t *TinyMT32) String() string {
	return fmt.Sprintf("TinyMT32(state=[%#08x %#08x %#08x %#08x %#08x])",
		t.state[0], t.state[1], t.state[2], t.state[3], t.state[4])
}
