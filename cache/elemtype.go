package cache

import "fmt"

// ElemType tags the scalar type of the elements stored in a cache line.
type ElemType int

// Supported element types.
const (
	Int32 ElemType = iota
	Float32
)

// ByteSize returns the number of bytes that one element occupies.
func (t ElemType) ByteSize() int {
	switch t {
	case Int32, Float32:
		return 4
	default:
		panic(fmt.Sprintf("unknown element type %d", int(t)))
	}
}

func (t ElemType) String() string {
	switch t {
	case Int32:
		return "int32"
	case Float32:
		return "float32"
	default:
		return fmt.Sprintf("ElemType(%d)", int(t))
	}
}

// ParseElemType converts a type name into an ElemType.
func ParseElemType(s string) (ElemType, error) {
	switch s {
	case "int32":
		return Int32, nil
	case "float32":
		return Float32, nil
	default:
		return 0, fmt.Errorf("unknown element type %q", s)
	}
}
