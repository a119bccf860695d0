package common

import "fmt"

// LType is the logical type of one output column. Width/Scale only
// matter for decimals, DictId only for dictionary-encoded varchar,
// ElemId only for lists.
type LType struct {
	Id      LTypeId
	Width   int
	Scale   int
	DictId  int32
	ElemId  LTypeId
	NotNull bool
}

func TinyintType() LType   { return LType{Id: LTID_TINYINT} }
func SmallintType() LType  { return LType{Id: LTID_SMALLINT} }
func IntegerType() LType   { return LType{Id: LTID_INTEGER} }
func BigintType() LType    { return LType{Id: LTID_BIGINT} }
func BooleanType() LType   { return LType{Id: LTID_BOOLEAN} }
func FloatType() LType     { return LType{Id: LTID_FLOAT} }
func DoubleType() LType    { return LType{Id: LTID_DOUBLE} }
func DateType() LType      { return LType{Id: LTID_DATE} }
func TimeType() LType      { return LType{Id: LTID_TIME} }
func TimestampType() LType { return LType{Id: LTID_TIMESTAMP} }
func VarcharType() LType   { return LType{Id: LTID_VARCHAR} }
func PointerType() LType   { return LType{Id: LTID_POINTER} }

func DecimalType(width, scale int) LType {
	return LType{Id: LTID_DECIMAL, Width: width, Scale: scale}
}

func DictVarcharType(dictId int32) LType {
	return LType{Id: LTID_VARCHAR, DictId: dictId}
}

func ListType(elem LTypeId) LType {
	return LType{Id: LTID_LIST, ElemId: elem}
}

func (lt LType) GetInternalType() PhyType {
	switch lt.Id {
	case LTID_BOOLEAN:
		return BOOL
	case LTID_TINYINT:
		return INT8
	case LTID_SMALLINT:
		return INT16
	case LTID_INTEGER:
		return INT32
	case LTID_BIGINT, LTID_TIME, LTID_TIMESTAMP, LTID_DECIMAL:
		return INT64
	case LTID_DATE:
		return DATE
	case LTID_FLOAT:
		return FLOAT
	case LTID_DOUBLE:
		return DOUBLE
	case LTID_VARCHAR:
		if lt.IsExtDictionary() {
			return INT32
		}
		return VARCHAR
	case LTID_LIST:
		return LIST
	case LTID_POINTER:
		return POINTER
	default:
		panic(fmt.Sprintf("usp %v", lt.Id))
	}
}

// CanonicalSize is the byte width needed to represent a value of this
// type, independent of how wide the storage slot happens to be.
func (lt LType) CanonicalSize() int {
	switch lt.Id {
	case LTID_BOOLEAN, LTID_TINYINT:
		return 1
	case LTID_SMALLINT:
		return 2
	case LTID_INTEGER:
		return 4
	case LTID_BIGINT, LTID_DATE, LTID_TIME, LTID_TIMESTAMP,
		LTID_DECIMAL, LTID_DOUBLE, LTID_POINTER:
		return 8
	case LTID_FLOAT:
		return 4
	case LTID_VARCHAR:
		if lt.IsExtDictionary() {
			return 4
		}
		return PointerSize
	default:
		panic(fmt.Sprintf("usp %v", lt.Id))
	}
}

func (lt LType) Elem() LType {
	if lt.Id != LTID_LIST {
		panic("elem type of non-list")
	}
	return LType{Id: lt.ElemId}
}

func (lt LType) IsInteger() bool {
	return lt.Id >= LTID_TINYINT && lt.Id <= LTID_BIGINT
}

func (lt LType) IsFp32() bool { return lt.Id == LTID_FLOAT }

func (lt LType) IsFloatingPoint() bool {
	return lt.Id == LTID_FLOAT || lt.Id == LTID_DOUBLE
}

func (lt LType) IsDecimal() bool { return lt.Id == LTID_DECIMAL }

func (lt LType) IsString() bool {
	return lt.Id == LTID_VARCHAR && lt.DictId == 0
}

func (lt LType) IsExtDictionary() bool {
	return lt.Id == LTID_VARCHAR && lt.DictId != 0
}

func (lt LType) IsArray() bool { return lt.Id == LTID_LIST }

func (lt LType) IsBoolean() bool { return lt.Id == LTID_BOOLEAN }

func (lt LType) IsDateTime() bool {
	return lt.Id == LTID_DATE || lt.Id == LTID_TIME || lt.Id == LTID_TIMESTAMP
}

func (lt LType) Nullable() bool { return !lt.NotNull }

func (lt LType) String() string {
	if lt.Id == LTID_DECIMAL {
		return fmt.Sprintf("DECIMAL(%d,%d)", lt.Width, lt.Scale)
	}
	if lt.IsExtDictionary() {
		return fmt.Sprintf("VARCHAR(dict=%d)", lt.DictId)
	}
	return lt.Id.String()
}

func CopyLTypes(types ...LType) []LType {
	ret := make([]LType, len(types))
	copy(ret, types)
	return ret
}
