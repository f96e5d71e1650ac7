package sizeclass

// Config defines the size-class policy: how request sizes are quantized
// into a fixed set of allocation classes.
//
// Classes come in two regimes. The first 1<<LgClassesPerDoubling classes
// are denormal: class i covers sizes up to (i+1)<<LgQuantum. Above that,
// classes follow a doubling progression with 1<<LgClassesPerDoubling
// sub-steps per power-of-two octave, so internal fragmentation is
// bounded by a constant fraction regardless of size.
type Config struct {
	// Name for this configuration (for benchmarking)
	Name string

	// LgQuantum is log2 of the allocation quantum. Every class size is
	// a multiple of 1<<LgQuantum. Must be at least 4 so the smallest
	// class can hold a free-list node.
	LgQuantum uint

	// LgClassesPerDoubling is log2 of the number of size classes per
	// power-of-two octave in the normal regime.
	LgClassesPerDoubling uint

	// MaxSmallSize is the ceiling for the small-object path. Requests
	// above it bypass the class free lists entirely.
	MaxSmallSize int

	// MaxSizeClass is the largest classifiable size. Classification of
	// anything larger is a caller error.
	MaxSizeClass int

	// LookupCeiling bounds the precomputed size→index table. Sizes at
	// or below it classify with a single table load. Must be a
	// multiple of the quantum.
	LookupCeiling int
}

// Predefined configurations.
var (
	// Runtime: the production policy. Quantum 16, four classes per
	// doubling octave; 68 classes up to 4MB.
	ConfigRuntime = Config{
		Name:                 "Runtime",
		LgQuantum:            4,
		LgClassesPerDoubling: 2,
		MaxSmallSize:         4096,
		MaxSizeClass:         4 << 20,
		LookupCeiling:        4096,
	}

	// FineGrained: more sub-steps per octave, tighter packing at the
	// cost of roughly twice the number of free lists.
	ConfigFineGrained = Config{
		Name:                 "FineGrained",
		LgQuantum:            4,
		LgClassesPerDoubling: 3,
		MaxSmallSize:         4096,
		MaxSizeClass:         4 << 20,
		LookupCeiling:        4096,
	}

	// Coarse: one class per octave. Fast, few lists, more internal
	// fragmentation. Useful as a baseline in benchmarks.
	ConfigCoarse = Config{
		Name:                 "Coarse",
		LgQuantum:            4,
		LgClassesPerDoubling: 1,
		MaxSmallSize:         4096,
		MaxSizeClass:         4 << 20,
		LookupCeiling:        1024,
	}

	// Default configuration (used if none specified).
	DefaultConfig = ConfigRuntime
)
