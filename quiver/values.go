// Copyright 2025 Magnus Pierre
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package quiver

import (
	"bytes"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/goccy/go-json"
)

// StructField is one named member of a Struct value.
type StructField struct {
	Name  string
	Value any
}

// Struct is a decoded struct cell. Member order follows the arrow type.
type Struct []StructField

// Get returns the named member.
func (s Struct) Get(name string) (any, bool) {
	for _, f := range s {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// MarshalJSON encodes the struct as a JSON object, keeping member order.
func (s Struct) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// chunkAt locates row i of a chunked column.
func chunkAt(c *arrow.Chunked, i int) (arrow.Array, int, bool) {
	for _, chunk := range c.Chunks() {
		if i < chunk.Len() {
			return chunk, i, true
		}
		i -= chunk.Len()
	}
	return nil, 0, false
}

// chunkedValue returns the normalized value at row i of a chunked column.
func chunkedValue(c *arrow.Chunked, i int) any {
	chunk, j, ok := chunkAt(c, i)
	if !ok {
		return nil
	}
	return valueAt(chunk, j)
}

// valueAt extracts and normalizes a single cell. Every numeric width
// collapses to int64, uint64 or float64; dates and timestamps become UTC
// time.Time; decimals become their unscaled *big.Int.
func valueAt(col arrow.Array, i int) any {
	if col.IsNull(i) {
		return nil
	}
	switch c := col.(type) {
	case *array.Null:
		return nil
	case *array.Boolean:
		return c.Value(i)
	case *array.Int8:
		return int64(c.Value(i))
	case *array.Int16:
		return int64(c.Value(i))
	case *array.Int32:
		return int64(c.Value(i))
	case *array.Int64:
		return c.Value(i)
	case *array.Uint8:
		return uint64(c.Value(i))
	case *array.Uint16:
		return uint64(c.Value(i))
	case *array.Uint32:
		return uint64(c.Value(i))
	case *array.Uint64:
		return c.Value(i)
	case *array.Float16:
		return float64(c.Value(i).Float32())
	case *array.Float32:
		return float64(c.Value(i))
	case *array.Float64:
		return c.Value(i)
	case *array.String:
		return c.Value(i)
	case *array.LargeString:
		return c.Value(i)
	case *array.Binary:
		return append([]byte(nil), c.Value(i)...)
	case *array.LargeBinary:
		return append([]byte(nil), c.Value(i)...)
	case *array.Date32:
		return c.Value(i).ToTime().UTC()
	case *array.Date64:
		return c.Value(i).ToTime().UTC()
	case *array.Timestamp:
		unit := c.DataType().(*arrow.TimestampType).Unit
		return c.Value(i).ToTime(unit).UTC()
	case *array.Time32:
		unit := c.DataType().(*arrow.Time32Type).Unit
		return c.Value(i).ToTime(unit).Format("15:04:05.999999999")
	case *array.Time64:
		unit := c.DataType().(*arrow.Time64Type).Unit
		return c.Value(i).ToTime(unit).Format("15:04:05.999999999")
	case *array.Duration:
		unit := c.DataType().(*arrow.DurationType).Unit
		return time.Duration(int64(c.Value(i)) * int64(unit.Multiplier()))
	case *array.Decimal128:
		return c.Value(i).BigInt()
	case *array.Decimal256:
		return c.Value(i).BigInt()
	case *array.Dictionary:
		return valueAt(c.Dictionary(), c.GetValueIndex(i))
	case *array.Struct:
		st := c.DataType().(*arrow.StructType)
		out := make(Struct, c.NumField())
		for j := 0; j < c.NumField(); j++ {
			out[j] = StructField{Name: st.Field(j).Name, Value: valueAt(c.Field(j), i)}
		}
		return out
	case array.ListLike:
		start, end := c.ValueOffsets(i)
		values := c.ListValues()
		out := make([]any, 0, end-start)
		for j := start; j < end; j++ {
			out = append(out, valueAt(values, int(j)))
		}
		return out
	case array.ExtensionArray:
		return valueAt(c.Storage(), i)
	default:
		return col.ValueStr(i)
	}
}
