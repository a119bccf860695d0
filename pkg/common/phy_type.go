package common

import "fmt"

const (
	BoolSize    = 1
	Int8Size    = 1
	Int16Size   = 2
	Int32Size   = 4
	Int64Size   = 8
	Float32Size = 4
	Float64Size = 8
	PointerSize = 8
)

type PhyType int

const (
	NA      PhyType = 0
	BOOL    PhyType = 1
	INT8    PhyType = 3
	INT16   PhyType = 5
	INT32   PhyType = 7
	INT64   PhyType = 9
	FLOAT   PhyType = 11
	DOUBLE  PhyType = 12
	LIST    PhyType = 23
	VARCHAR PhyType = 200
	UNKNOWN PhyType = 205
	DATE    PhyType = 207
	POINTER PhyType = 208

	INVALID PhyType = 255
)

var pTypeToStr = map[PhyType]string{
	NA:      "NA",
	BOOL:    "BOOL",
	INT8:    "INT8",
	INT16:   "INT16",
	INT32:   "INT32",
	INT64:   "INT64",
	FLOAT:   "FLOAT",
	DOUBLE:  "DOUBLE",
	LIST:    "LIST",
	VARCHAR: "VARCHAR",
	UNKNOWN: "UNKNOWN",
	DATE:    "DATE",
	POINTER: "POINTER",
	INVALID: "INVALID",
}

func (pt PhyType) String() string {
	if s, has := pTypeToStr[pt]; has {
		return s
	}
	panic(fmt.Sprintf("usp %d", pt))
}

func (pt PhyType) Size() int {
	switch pt {
	case BOOL:
		return BoolSize
	case INT8:
		return Int8Size
	case INT16:
		return Int16Size
	case INT32:
		return Int32Size
	case INT64:
		return Int64Size
	case FLOAT:
		return Float32Size
	case DOUBLE:
		return Float64Size
	case DATE:
		return Int64Size
	case POINTER:
		return PointerSize
	default:
		panic("usp")
	}
}

func (pt PhyType) IsConstant() bool {
	return pt >= BOOL && pt <= DOUBLE ||
		pt == DATE ||
		pt == POINTER
}

func (pt PhyType) IsVarchar() bool {
	return pt == VARCHAR
}
