package rowset

import (
	"fmt"
	"strings"

	"github.com/voradb/vora/pkg/common"
)

// TargetValue is the decoded form of one target in one row. Which
// fields are meaningful follows Typ; IsNull wins over all of them.
type TargetValue struct {
	Typ    common.LType
	IsNull bool
	I64    int64
	F64    float64
	Str    string
	Arr    []TargetValue
}

func NullValue(typ common.LType) TargetValue {
	return TargetValue{Typ: typ, IsNull: true}
}

func IntValue(typ common.LType, val int64) TargetValue {
	return TargetValue{Typ: typ, I64: val}
}

func FloatValue(typ common.LType, val float64) TargetValue {
	return TargetValue{Typ: typ, F64: val}
}

func StrValue(typ common.LType, val string) TargetValue {
	return TargetValue{Typ: typ, Str: val}
}

func ArrValue(typ common.LType, vals []TargetValue) TargetValue {
	return TargetValue{Typ: typ, Arr: vals}
}

func (val TargetValue) String() string {
	if val.IsNull {
		return "NULL"
	}
	switch val.Typ.Id {
	case common.LTID_BOOLEAN:
		if val.I64 != 0 {
			return "true"
		}
		return "false"
	case common.LTID_TINYINT, common.LTID_SMALLINT,
		common.LTID_INTEGER, common.LTID_BIGINT,
		common.LTID_DATE, common.LTID_TIME, common.LTID_TIMESTAMP:
		return fmt.Sprintf("%d", val.I64)
	case common.LTID_DECIMAL:
		dec, err := common.NewDecimalFromRaw(val.I64, val.Typ.Scale)
		if err != nil {
			return fmt.Sprintf("%d(raw)", val.I64)
		}
		return dec.String()
	case common.LTID_FLOAT, common.LTID_DOUBLE:
		return fmt.Sprintf("%g", val.F64)
	case common.LTID_VARCHAR:
		return val.Str
	case common.LTID_LIST:
		elems := make([]string, 0, len(val.Arr))
		for _, elem := range val.Arr {
			elems = append(elems, elem.String())
		}
		return "{" + strings.Join(elems, ", ") + "}"
	default:
		panic(fmt.Sprintf("usp %v", val.Typ.Id))
	}
}

// Row is one decoded result row, one TargetValue per target.
type Row []TargetValue
