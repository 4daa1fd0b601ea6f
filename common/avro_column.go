package common

import (
	"fmt"
	"sort"
)

// Column is a decoded Avro column. Consumers switch on the concrete type:
// *StringColumn, *TupleColumn, *NullableColumn, etc.
type Column interface {
	DataType() AvroDataType
	Len() int

	appendNative(native interface{}, settings AvroConfig) error
	appendDefault()
}

func NewColumn(dataType AvroDataType) Column {
	switch dataType.Type {
	case COLUMN_TYPE_BOOL:
		return &BoolColumn{}
	case COLUMN_TYPE_INT32:
		return &Int32Column{}
	case COLUMN_TYPE_INT64:
		return &Int64Column{}
	case COLUMN_TYPE_FLOAT32:
		return &Float32Column{}
	case COLUMN_TYPE_FLOAT64:
		return &Float64Column{}
	case COLUMN_TYPE_STRING:
		return &StringColumn{}
	case COLUMN_TYPE_BYTES, COLUMN_TYPE_FIXED:
		return &BytesColumn{dataType: dataType}
	case COLUMN_TYPE_ENUM:
		return &EnumColumn{dataType: dataType}
	case COLUMN_TYPE_NULLABLE:
		return &NullableColumn{dataType: dataType, Values: NewColumn(*dataType.Element)}
	case COLUMN_TYPE_ARRAY:
		return &ArrayColumn{dataType: dataType, Offsets: []int{}, Values: NewColumn(*dataType.Element)}
	case COLUMN_TYPE_MAP:
		return &MapColumn{dataType: dataType, Offsets: []int{}, Values: NewColumn(*dataType.Element)}
	case COLUMN_TYPE_TUPLE:
		columns := make([]Column, len(dataType.Fields))
		for i, field := range dataType.Fields {
			columns[i] = NewColumn(field.DataType)
		}
		return &TupleColumn{dataType: dataType, Columns: columns}
	}

	return &NothingColumn{}
}

func appendValue(column Column, native interface{}, settings AvroConfig) error {
	if native == nil {
		switch column.(type) {
		case *NullableColumn, *NothingColumn:
		default:
			if !settings.NullAsDefault {
				return fmt.Errorf("%w: null value for non-nullable %s column", ErrTypeMismatch, column.DataType())
			}
			column.appendDefault()
			return nil
		}
	}

	return column.appendNative(native, settings)
}

func unexpectedValueError(column Column, native interface{}) error {
	return fmt.Errorf("%w: cannot append %T value to %s column", ErrTypeMismatch, native, column.DataType())
}

////////////////////////////////////////////////////////////////////////////////////////////////////////////////////////

type NothingColumn struct {
	count int
}

func (column *NothingColumn) DataType() AvroDataType { return AvroDataType{Type: COLUMN_TYPE_NOTHING} }
func (column *NothingColumn) Len() int               { return column.count }
func (column *NothingColumn) appendDefault()         { column.count++ }

func (column *NothingColumn) appendNative(native interface{}, settings AvroConfig) error {
	if native != nil {
		return unexpectedValueError(column, native)
	}
	column.count++
	return nil
}

type BoolColumn struct {
	Values []bool
}

func (column *BoolColumn) DataType() AvroDataType { return AvroDataType{Type: COLUMN_TYPE_BOOL} }
func (column *BoolColumn) Len() int               { return len(column.Values) }
func (column *BoolColumn) appendDefault()         { column.Values = append(column.Values, false) }

func (column *BoolColumn) appendNative(native interface{}, settings AvroConfig) error {
	value, ok := native.(bool)
	if !ok {
		return unexpectedValueError(column, native)
	}
	column.Values = append(column.Values, value)
	return nil
}

type Int32Column struct {
	Values []int32
}

func (column *Int32Column) DataType() AvroDataType { return AvroDataType{Type: COLUMN_TYPE_INT32} }
func (column *Int32Column) Len() int               { return len(column.Values) }
func (column *Int32Column) appendDefault()         { column.Values = append(column.Values, 0) }

func (column *Int32Column) appendNative(native interface{}, settings AvroConfig) error {
	switch value := native.(type) {
	case int32:
		column.Values = append(column.Values, value)
	case int:
		column.Values = append(column.Values, int32(value))
	default:
		return unexpectedValueError(column, native)
	}
	return nil
}

type Int64Column struct {
	Values []int64
}

func (column *Int64Column) DataType() AvroDataType { return AvroDataType{Type: COLUMN_TYPE_INT64} }
func (column *Int64Column) Len() int               { return len(column.Values) }
func (column *Int64Column) appendDefault()         { column.Values = append(column.Values, 0) }

func (column *Int64Column) appendNative(native interface{}, settings AvroConfig) error {
	switch value := native.(type) {
	case int64:
		column.Values = append(column.Values, value)
	case int32:
		column.Values = append(column.Values, int64(value))
	case int:
		column.Values = append(column.Values, int64(value))
	default:
		return unexpectedValueError(column, native)
	}
	return nil
}

type Float32Column struct {
	Values []float32
}

func (column *Float32Column) DataType() AvroDataType { return AvroDataType{Type: COLUMN_TYPE_FLOAT32} }
func (column *Float32Column) Len() int               { return len(column.Values) }
func (column *Float32Column) appendDefault()         { column.Values = append(column.Values, 0) }

func (column *Float32Column) appendNative(native interface{}, settings AvroConfig) error {
	value, ok := native.(float32)
	if !ok {
		return unexpectedValueError(column, native)
	}
	column.Values = append(column.Values, value)
	return nil
}

type Float64Column struct {
	Values []float64
}

func (column *Float64Column) DataType() AvroDataType { return AvroDataType{Type: COLUMN_TYPE_FLOAT64} }
func (column *Float64Column) Len() int               { return len(column.Values) }
func (column *Float64Column) appendDefault()         { column.Values = append(column.Values, 0) }

func (column *Float64Column) appendNative(native interface{}, settings AvroConfig) error {
	switch value := native.(type) {
	case float64:
		column.Values = append(column.Values, value)
	case float32:
		column.Values = append(column.Values, float64(value))
	default:
		return unexpectedValueError(column, native)
	}
	return nil
}

type StringColumn struct {
	Values []string
}

func (column *StringColumn) DataType() AvroDataType { return AvroDataType{Type: COLUMN_TYPE_STRING} }
func (column *StringColumn) Len() int               { return len(column.Values) }
func (column *StringColumn) appendDefault()         { column.Values = append(column.Values, "") }

func (column *StringColumn) appendNative(native interface{}, settings AvroConfig) error {
	value, ok := native.(string)
	if !ok {
		return unexpectedValueError(column, native)
	}
	column.Values = append(column.Values, value)
	return nil
}

// BytesColumn holds both Avro bytes and fixed values.
type BytesColumn struct {
	dataType AvroDataType
	Values   [][]byte
}

func (column *BytesColumn) DataType() AvroDataType { return column.dataType }
func (column *BytesColumn) Len() int               { return len(column.Values) }

func (column *BytesColumn) appendDefault() {
	column.Values = append(column.Values, make([]byte, column.dataType.Size))
}

func (column *BytesColumn) appendNative(native interface{}, settings AvroConfig) error {
	value, ok := native.([]byte)
	if !ok {
		return unexpectedValueError(column, native)
	}
	column.Values = append(column.Values, append([]byte{}, value...))
	return nil
}

type EnumColumn struct {
	dataType AvroDataType
	Values   []string
}

func (column *EnumColumn) DataType() AvroDataType { return column.dataType }
func (column *EnumColumn) Len() int               { return len(column.Values) }

func (column *EnumColumn) appendDefault() {
	defaultSymbol := ""
	if len(column.dataType.Symbols) > 0 {
		defaultSymbol = column.dataType.Symbols[0]
	}
	column.Values = append(column.Values, defaultSymbol)
}

func (column *EnumColumn) appendNative(native interface{}, settings AvroConfig) error {
	value, ok := native.(string)
	if !ok {
		return unexpectedValueError(column, native)
	}
	column.Values = append(column.Values, value)
	return nil
}

type NullableColumn struct {
	dataType AvroDataType
	Nulls    []bool
	Values   Column
}

func (column *NullableColumn) DataType() AvroDataType { return column.dataType }
func (column *NullableColumn) Len() int               { return len(column.Nulls) }

func (column *NullableColumn) appendDefault() {
	column.Nulls = append(column.Nulls, true)
	column.Values.appendDefault()
}

func (column *NullableColumn) appendNative(native interface{}, settings AvroConfig) error {
	if native == nil {
		column.appendDefault()
		return nil
	}

	// Non-null union values are wrapped as {"<branch type name>": value}
	if wrapped, ok := native.(map[string]interface{}); ok && len(wrapped) == 1 {
		for _, value := range wrapped {
			native = value
		}
	}

	if err := appendValue(column.Values, native, settings); err != nil {
		return err
	}
	column.Nulls = append(column.Nulls, false)
	return nil
}

type ArrayColumn struct {
	dataType AvroDataType
	Offsets  []int // end offset of each row in Values
	Values   Column
}

func (column *ArrayColumn) DataType() AvroDataType { return column.dataType }
func (column *ArrayColumn) Len() int               { return len(column.Offsets) }

func (column *ArrayColumn) appendDefault() {
	column.Offsets = append(column.Offsets, column.Values.Len())
}

func (column *ArrayColumn) appendNative(native interface{}, settings AvroConfig) error {
	items, ok := native.([]interface{})
	if !ok {
		return unexpectedValueError(column, native)
	}
	for _, item := range items {
		if err := appendValue(column.Values, item, settings); err != nil {
			return err
		}
	}
	column.Offsets = append(column.Offsets, column.Values.Len())
	return nil
}

type MapColumn struct {
	dataType AvroDataType
	Offsets  []int // end offset of each row in Keys and Values
	Keys     []string
	Values   Column
}

func (column *MapColumn) DataType() AvroDataType { return column.dataType }
func (column *MapColumn) Len() int               { return len(column.Offsets) }

func (column *MapColumn) appendDefault() {
	column.Offsets = append(column.Offsets, len(column.Keys))
}

func (column *MapColumn) appendNative(native interface{}, settings AvroConfig) error {
	entries, ok := native.(map[string]interface{})
	if !ok {
		return unexpectedValueError(column, native)
	}

	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := appendValue(column.Values, entries[key], settings); err != nil {
			return err
		}
		column.Keys = append(column.Keys, key)
	}
	column.Offsets = append(column.Offsets, len(column.Keys))
	return nil
}

// TupleColumn is a decoded Avro record: one sub-column per record field, in schema order.
type TupleColumn struct {
	dataType AvroDataType
	Columns  []Column
}

func (column *TupleColumn) DataType() AvroDataType { return column.dataType }

func (column *TupleColumn) Len() int {
	if len(column.Columns) == 0 {
		return 0
	}
	return column.Columns[0].Len()
}

func (column *TupleColumn) ColumnAt(index int) (Column, error) {
	if index < 0 || index >= len(column.Columns) {
		return nil, fmt.Errorf("%w: %s has no field at position %d", ErrTypeMismatch, column.dataType, index)
	}
	return column.Columns[index], nil
}

func (column *TupleColumn) appendDefault() {
	for _, subColumn := range column.Columns {
		subColumn.appendDefault()
	}
}

func (column *TupleColumn) appendNative(native interface{}, settings AvroConfig) error {
	record, ok := native.(map[string]interface{})
	if !ok {
		return unexpectedValueError(column, native)
	}

	for i, field := range column.dataType.Fields {
		value, ok := record[field.Name]
		if !ok {
			if !settings.AllowMissingFields {
				return fmt.Errorf("%w: field %q is missing from %s record", ErrMalformedMetadata, field.Name, column.dataType.Name)
			}
			column.Columns[i].appendDefault()
			continue
		}

		if err := appendValue(column.Columns[i], value, settings); err != nil {
			return fmt.Errorf("field %q: %w", field.Name, err)
		}
	}
	return nil
}
