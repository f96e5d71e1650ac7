package sizeclass

import (
	"errors"
	"fmt"
	"math/bits"
)

// Table holds the computed size classes for one Config, plus the lookup
// table used on the hot classification path.
//
// Classification is a ceiling function: Size2Index(s) is the smallest
// class whose size is >= s. The convention throughout is to classify
// size-1, so a request of exactly a class boundary lands in that class
// rather than the next one up.
type Table struct {
	cfg        Config
	index2size []int
	lookup     []uint8 // indexed by (size-1)>>LgQuantum for size <= LookupCeiling
	numClasses int
	numSmall   int
}

var (
	// ErrBadConfig indicates an inconsistent size-class configuration.
	ErrBadConfig = errors.New("sizeclass: invalid config")
)

// New computes the class table for the given config. The zero Config is
// replaced by DefaultConfig.
func New(cfg Config) (*Table, error) {
	if cfg == (Config{}) {
		cfg = DefaultConfig
	}
	if cfg.LgQuantum < 4 {
		return nil, fmt.Errorf("%w: quantum %d too small for a free node", ErrBadConfig, 1<<cfg.LgQuantum)
	}
	if cfg.LgClassesPerDoubling < 1 {
		return nil, fmt.Errorf("%w: need at least one class per doubling", ErrBadConfig)
	}
	quantum := 1 << cfg.LgQuantum
	if cfg.LookupCeiling < quantum || cfg.LookupCeiling%quantum != 0 {
		return nil, fmt.Errorf("%w: lookup ceiling %d not a positive multiple of quantum", ErrBadConfig, cfg.LookupCeiling)
	}
	if cfg.MaxSmallSize < quantum || cfg.MaxSizeClass < cfg.MaxSmallSize {
		return nil, fmt.Errorf("%w: small/max ceilings out of order", ErrBadConfig)
	}
	if cfg.LookupCeiling > cfg.MaxSizeClass {
		return nil, fmt.Errorf("%w: lookup ceiling beyond max size class", ErrBadConfig)
	}

	t := &Table{cfg: cfg}
	nDenormal := 1 << cfg.LgClassesPerDoubling
	for i := 0; ; i++ {
		var size int
		if i < nDenormal {
			size = (i + 1) << cfg.LgQuantum
		} else {
			exp := uint(i>>cfg.LgClassesPerDoubling) - 1
			mantissa := i&(nDenormal-1) + 1
			size = (nDenormal + mantissa) << (exp + cfg.LgQuantum)
		}
		if size > cfg.MaxSizeClass {
			break
		}
		t.index2size = append(t.index2size, size)
		if size <= cfg.MaxSmallSize {
			t.numSmall = i + 1
		}
	}
	t.numClasses = len(t.index2size)
	if t.numClasses == 0 || t.numClasses > 256 {
		return nil, fmt.Errorf("%w: %d classes", ErrBadConfig, t.numClasses)
	}
	if t.index2size[t.numClasses-1] != cfg.MaxSizeClass {
		return nil, fmt.Errorf("%w: max size class %d is not a class boundary", ErrBadConfig, cfg.MaxSizeClass)
	}
	if t.index2size[t.numSmall-1] != cfg.MaxSmallSize {
		return nil, fmt.Errorf("%w: max small size %d is not a class boundary", ErrBadConfig, cfg.MaxSmallSize)
	}

	// Precompute the small-size lookup table. All sizes within one
	// quantum share a slot, and class boundaries are quantum-aligned,
	// so evaluating the slot's largest size is exact for the whole slot.
	t.lookup = make([]uint8, cfg.LookupCeiling>>cfg.LgQuantum)
	for slot := range t.lookup {
		t.lookup[slot] = uint8(t.computeIndex((slot + 1) << cfg.LgQuantum))
	}
	return t, nil
}

// MustNew is New for configs known to be valid, typically the package
// presets.
func MustNew(cfg Config) *Table {
	t, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return t
}

// Size2Index maps a byte size to its class index.
//
// Requires 0 < size <= MaxSizeClass. Callers must pre-filter larger
// requests into the big-allocation path; violating the contract here
// faults rather than silently corrupting a free list.
func (t *Table) Size2Index(size int) int {
	if size <= 0 || size > t.cfg.MaxSizeClass {
		panic(fmt.Sprintf("sizeclass: Size2Index(%d) out of range (0, %d]", size, t.cfg.MaxSizeClass))
	}
	if size <= t.cfg.LookupCeiling {
		return int(t.lookup[(size-1)>>t.cfg.LgQuantum])
	}
	return t.computeIndex(size)
}

// computeIndex classifies without the lookup table.
//
// The first 1<<LgClassesPerDoubling classes are denormal: their sizes
// are (index+1)<<LgQuantum. Normal class sizes are
// (1<<LgClassesPerDoubling + mantissa) << (exp + LgQuantum), with
// mantissa-1 in the low LgClassesPerDoubling bits of the index and
// exp+1 above them. Computed naively the index would be
// (exp+1)<<LgClassesPerDoubling + (mantissa-1), but that equals
// (exp<<LgClassesPerDoubling) + (1<<LgClassesPerDoubling + mantissa - 1),
// which lets us keep the leading mantissa bit and skip the exponent
// increment: the raw top bits of size-1 are the second term directly.
func (t *Table) computeIndex(size int) int {
	lgQ, lgD := t.cfg.LgQuantum, t.cfg.LgClassesPerDoubling
	s := uint64(size) - 1
	nBits := uint(bits.Len64(s)) - 1
	if nBits < lgD+lgQ {
		// denormal sizes; these normally resolve through the lookup table
		return int(s >> lgQ)
	}
	exp := uint64(nBits - (lgD + lgQ))
	rawMantissa := s >> (nBits - lgD)
	return int(exp<<lgD + rawMantissa)
}

// Index2Size returns the byte size of a class. It is the inverse of
// Size2Index only for sizes that are themselves class boundaries.
func (t *Table) Index2Size(index int) int {
	return t.index2size[index]
}

// SizeClass rounds a size up to its class boundary without computing
// the index. Agrees with Index2Size(Size2Index(size)) for every size in
// (1, MaxSizeClass].
func (t *Table) SizeClass(size int) int {
	if size <= 1 || size > t.cfg.MaxSizeClass {
		panic(fmt.Sprintf("sizeclass: SizeClass(%d) out of range (1, %d]", size, t.cfg.MaxSizeClass))
	}
	lgQ, lgD := t.cfg.LgQuantum, t.cfg.LgClassesPerDoubling
	s := uint64(size) - 1
	// Round up to LgClassesPerDoubling+1 significant bits, or to the
	// quantum, whichever is coarser.
	nInsignificant := bits.Len64(s) - 1 - int(lgD)
	roundTo := uint(lgQ)
	if nInsignificant > int(lgQ) {
		roundTo = uint(nInsignificant)
	}
	return int((s>>roundTo + 1) << roundTo)
}

// NumClasses returns the total number of size classes.
func (t *Table) NumClasses() int { return t.numClasses }

// NumSmallClasses returns the number of classes at or below the
// small-object ceiling. Indexes below this bound use the class free
// lists; everything else is a big allocation.
func (t *Table) NumSmallClasses() int { return t.numSmall }

// MaxSmallSize returns the small-object ceiling in bytes.
func (t *Table) MaxSmallSize() int { return t.cfg.MaxSmallSize }

// MaxSizeClass returns the largest classifiable size in bytes.
func (t *Table) MaxSizeClass() int { return t.cfg.MaxSizeClass }

// Quantum returns the allocation quantum in bytes.
func (t *Table) Quantum() int { return 1 << t.cfg.LgQuantum }

// Config returns the policy this table was computed from.
func (t *Table) Config() Config { return t.cfg }

// String returns a human-readable description of the table.
func (t *Table) String() string {
	return t.cfg.Name
}
