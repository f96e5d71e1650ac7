package alloc

// Ptr is a virtual address within an allocator's backing heap. Heaps
// assign region base addresses monotonically, so a Ptr identifies one
// byte for the life of the owning Manager. 0 is the null sentinel.
type Ptr = uint64

// Kind identifies what occupies a block. It lives in the top byte of
// the block header word (see internal/format).
type Kind uint8

const (
	KindInvalid Kind = iota
	KindObject       // live object memory
	KindString       // string-like node threaded on the side list
	KindFree         // materialized free-list node
	KindHole         // unclassified slack (slab tail, padding)
	KindSlab         // whole slab region
	KindBig          // individually tracked big allocation
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindString:
		return "string"
	case KindFree:
		return "free"
	case KindHole:
		return "hole"
	case KindSlab:
		return "slab"
	case KindBig:
		return "big"
	default:
		return "invalid"
	}
}
