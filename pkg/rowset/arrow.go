package rowset

import (
	"fmt"

	"github.com/apache/arrow/go/arrow"
	"github.com/apache/arrow/go/arrow/array"
	"github.com/apache/arrow/go/arrow/memory"

	"github.com/voradb/vora/pkg/common"
)

func arrowTypeFor(typ common.LType) (arrow.DataType, error) {
	switch typ.Id {
	case common.LTID_BOOLEAN:
		return arrow.FixedWidthTypes.Boolean, nil
	case common.LTID_TINYINT:
		return arrow.PrimitiveTypes.Int8, nil
	case common.LTID_SMALLINT:
		return arrow.PrimitiveTypes.Int16, nil
	case common.LTID_INTEGER:
		return arrow.PrimitiveTypes.Int32, nil
	case common.LTID_BIGINT, common.LTID_DATE, common.LTID_TIME, common.LTID_TIMESTAMP:
		return arrow.PrimitiveTypes.Int64, nil
	case common.LTID_FLOAT:
		return arrow.PrimitiveTypes.Float32, nil
	case common.LTID_DOUBLE, common.LTID_DECIMAL:
		return arrow.PrimitiveTypes.Float64, nil
	case common.LTID_VARCHAR:
		return arrow.BinaryTypes.String, nil
	default:
		return nil, fmt.Errorf("unsupported type for arrow export: %v", typ)
	}
}

// GetArrowBatch renders the result rows as one arrow record batch.
// Dictionary columns come out as translated strings, decimals as
// doubles. Names index the output columns and may be nil.
func GetArrowBatch(rs *ResultSet, names []string) (array.Record, error) {
	fields := make([]arrow.Field, rs.ColCount())
	for colIdx := 0; colIdx < rs.ColCount(); colIdx++ {
		typ := rs.ColType(colIdx)
		dt, err := arrowTypeFor(typ)
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("col_%d", colIdx)
		if colIdx < len(names) {
			name = names[colIdx]
		}
		fields[colIdx] = arrow.Field{Name: name, Type: dt, Nullable: typ.Nullable()}
	}
	schema := arrow.NewSchema(fields, nil)
	builder := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer builder.Release()

	for _, logicalIdx := range rs.collectRowIndices() {
		row := rs.GetRowAt(logicalIdx, true, true)
		if row == nil {
			continue
		}
		for colIdx, val := range row {
			appendArrowValue(builder.Field(colIdx), rs.ColType(colIdx), val)
		}
	}
	return builder.NewRecord(), nil
}

func appendArrowValue(fb array.Builder, typ common.LType, val TargetValue) {
	if val.IsNull {
		fb.AppendNull()
		return
	}
	switch typ.Id {
	case common.LTID_BOOLEAN:
		fb.(*array.BooleanBuilder).Append(val.I64 != 0)
	case common.LTID_TINYINT:
		fb.(*array.Int8Builder).Append(int8(val.I64))
	case common.LTID_SMALLINT:
		fb.(*array.Int16Builder).Append(int16(val.I64))
	case common.LTID_INTEGER:
		fb.(*array.Int32Builder).Append(int32(val.I64))
	case common.LTID_BIGINT, common.LTID_DATE, common.LTID_TIME, common.LTID_TIMESTAMP:
		fb.(*array.Int64Builder).Append(val.I64)
	case common.LTID_FLOAT:
		fb.(*array.Float32Builder).Append(float32(val.F64))
	case common.LTID_DOUBLE, common.LTID_DECIMAL:
		fb.(*array.Float64Builder).Append(val.F64)
	case common.LTID_VARCHAR:
		fb.(*array.StringBuilder).Append(val.Str)
	default:
		panic(fmt.Sprintf("usp %v", typ.Id))
	}
}
