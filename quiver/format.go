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
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone names must resolve regardless of the host

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NullDisplay is the display string of a missing value.
const NullDisplay = "<NA>"

const (
	dateLayout       = "2006-01-02"
	datetimeLayout   = "2006-01-02T15:04:05"
	datetimeTZLayout = "2006-01-02T15:04:05-07:00"

	extensionNameKey     = "ARROW:extension:name"
	extensionMetadataKey = "ARROW:extension:metadata"
	intervalExtension    = "pandas.interval"
)

var intervalTypePattern = regexp.MustCompile(`^interval\[(.+), (both|left|right|neither)\]$`)

var numberPrinter = message.NewPrinter(language.English)

// formatRule renders a value of one Kind. It reports false when the value
// is not of a shape the rule handles, in which case the default applies.
type formatRule func(v any, t Type, field *arrow.Field) (string, bool, error)

var formatRules map[Kind]formatRule

func init() {
	formatRules = map[Kind]formatRule{
		KindDate:        formatDate,
		KindDatetimeTZ:  formatDatetimeTZ,
		KindDatetime:    formatDatetime,
		KindInterval:    formatIntervalValue,
		KindCategorical: formatCategorical,
		KindDecimal:     formatDecimal,
		KindObject:      formatJSON,
		KindList:        formatJSON,
		KindFloat64:     formatFloat64,
	}
}

// Format renders a cell value as its display string. typ and field may be
// nil; without a type the value is stringified as is.
func Format(v any, typ *Type, field *arrow.Field) (string, error) {
	if v == nil {
		return NullDisplay, nil
	}
	if typ != nil {
		if rule, ok := formatRules[typ.Kind()]; ok {
			s, ok, err := rule(v, *typ, field)
			if err != nil {
				return "", err
			}
			if ok {
				return s, nil
			}
		}
	}
	return stringify(v), nil
}

func formatDate(v any, _ Type, _ *arrow.Field) (string, bool, error) {
	t, ok := asTime(v)
	if !ok {
		return "", false, nil
	}
	return t.UTC().Format(dateLayout), true, nil
}

func formatDatetime(v any, _ Type, _ *arrow.Field) (string, bool, error) {
	t, ok := asTime(v)
	if !ok {
		return "", false, nil
	}
	return t.UTC().Format(datetimeLayout), true, nil
}

func formatDatetimeTZ(v any, typ Type, field *arrow.Field) (string, bool, error) {
	t, ok := asTime(v)
	if !ok {
		return "", false, nil
	}
	tz := typ.Meta.Timezone
	if tz == "" && field != nil {
		if ts, ok := field.Type.(*arrow.TimestampType); ok {
			tz = ts.TimeZone
		}
	}
	loc, err := zoneFor(tz)
	if err != nil {
		return "", false, err
	}
	return t.In(loc).Format(datetimeTZLayout), true, nil
}

// zoneFor resolves a zone name, falling back to reading tz as a UTC offset
// such as "+05:30".
func zoneFor(tz string) (*time.Location, error) {
	if tz == "" {
		return time.UTC, nil
	}
	if loc, err := time.LoadLocation(tz); err == nil {
		return loc, nil
	}
	if secs, ok := parseUTCOffset(tz); ok {
		return time.FixedZone(tz, secs), nil
	}
	return nil, errors.Wrapf(ErrInvalidTimezone, "%q", tz)
}

func parseUTCOffset(s string) (int, bool) {
	if s == "Z" {
		return 0, true
	}
	if len(s) < 3 || (s[0] != '+' && s[0] != '-') {
		return 0, false
	}
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	body := strings.Replace(s[1:], ":", "", 1)
	if len(body) != 2 && len(body) != 4 {
		return 0, false
	}
	for _, c := range body {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	h, _ := strconv.Atoi(body[:2])
	m := 0
	if len(body) == 4 {
		m, _ = strconv.Atoi(body[2:])
	}
	if h > 23 || m > 59 {
		return 0, false
	}
	return sign * (h*3600 + m*60), true
}

// asTime accepts time values and epoch milliseconds.
func asTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case int64:
		return time.UnixMilli(x), true
	case uint64:
		return time.UnixMilli(int64(x)), true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(x)), true
	}
	return time.Time{}, false
}

func formatIntervalValue(v any, typ Type, _ *arrow.Field) (string, bool, error) {
	subtype, closed, err := ParseIntervalType(typ.Name())
	if err != nil {
		return "", false, err
	}
	s, err := formatInterval(v, subtype, closed)
	return s, err == nil, err
}

// ParseIntervalType splits "interval[<subtype>, <closed>]" into its parts.
func ParseIntervalType(name string) (subtype, closed string, err error) {
	m := intervalTypePattern.FindStringSubmatch(name)
	if m == nil {
		return "", "", errors.Wrapf(ErrMalformedInterval, "invalid interval type %q", name)
	}
	return m[1], m[2], nil
}

func formatInterval(v any, subtype, closed string) (string, error) {
	left, right, ok := intervalBounds(v)
	if !ok {
		return "", errors.Wrapf(ErrMalformedInterval, "value %v has no left and right bounds", v)
	}
	leftBracket, rightBracket := "(", ")"
	if closed == "both" || closed == "left" {
		leftBracket = "["
	}
	if closed == "both" || closed == "right" {
		rightBracket = "]"
	}
	sub := Type{PandasType: subtype, NumpyType: subtype}
	l, err := Format(left, &sub, nil)
	if err != nil {
		return "", err
	}
	r, err := Format(right, &sub, nil)
	if err != nil {
		return "", err
	}
	return leftBracket + l + ", " + r + rightBracket, nil
}

func intervalBounds(v any) (left, right any, ok bool) {
	switch x := v.(type) {
	case Struct:
		l, lok := x.Get("left")
		r, rok := x.Get("right")
		return l, r, lok && rok
	case map[string]any:
		l, lok := x["left"]
		r, rok := x["right"]
		return l, r, lok && rok
	}
	return nil, nil, false
}

func formatCategorical(v any, _ Type, field *arrow.Field) (string, bool, error) {
	subtype, closed, ok, err := intervalExtensionOf(field)
	if err != nil {
		return "", false, err
	}
	if !ok {
		return stringify(v), true, nil
	}
	s, err := formatInterval(v, subtype, closed)
	return s, err == nil, err
}

// intervalExtensionOf reports whether field holds pandas intervals, either
// through field metadata or a registered extension type, and returns the
// interval subtype and closed side.
func intervalExtensionOf(field *arrow.Field) (subtype, closed string, ok bool, err error) {
	if field == nil {
		return "", "", false, nil
	}
	var serialized string
	if i := field.Metadata.FindKey(extensionNameKey); i >= 0 && field.Metadata.Values()[i] == intervalExtension {
		if j := field.Metadata.FindKey(extensionMetadataKey); j >= 0 {
			serialized = field.Metadata.Values()[j]
		}
	} else if ext, isExt := dictionaryValueType(field.Type).(arrow.ExtensionType); isExt && ext.ExtensionName() == intervalExtension {
		serialized = ext.Serialize()
	} else {
		return "", "", false, nil
	}

	var meta struct {
		Subtype string `json:"subtype"`
		Closed  string `json:"closed"`
	}
	if err := json.Unmarshal([]byte(serialized), &meta); err != nil {
		return "", "", false, errors.Wrapf(ErrMalformedInterval, "extension metadata %q: %v", serialized, err)
	}
	return meta.Subtype, meta.Closed, true, nil
}

func dictionaryValueType(dt arrow.DataType) arrow.DataType {
	if d, ok := dt.(*arrow.DictionaryType); ok {
		return d.ValueType
	}
	return dt
}

func formatDecimal(v any, typ Type, field *arrow.Field) (string, bool, error) {
	var digits string
	switch x := v.(type) {
	case *big.Int:
		digits = x.String()
	case string:
		digits = x
	case int64:
		digits = strconv.FormatInt(x, 10)
	case uint64:
		digits = strconv.FormatUint(x, 10)
	default:
		return "", false, nil
	}
	return insertDecimalPoint(digits, decimalScale(typ, field)), true, nil
}

// insertDecimalPoint places a point scale digits from the right of an
// unscaled integer. Scales that are not smaller than the digit count leave
// the digits as they are.
func insertDecimalPoint(digits string, scale int) string {
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	if scale > 0 && scale < len(digits) {
		digits = digits[:len(digits)-scale] + "." + digits[len(digits)-scale:]
	}
	return sign + digits
}

func decimalScale(typ Type, field *arrow.Field) int {
	if field != nil {
		switch dt := field.Type.(type) {
		case *arrow.Decimal128Type:
			return int(dt.Scale)
		case *arrow.Decimal256Type:
			return int(dt.Scale)
		}
	}
	if typ.Meta.Scale != nil {
		return *typ.Meta.Scale
	}
	return 0
}

func formatJSON(v any, _ Type, field *arrow.Field) (string, bool, error) {
	if field != nil {
		if _, ok := field.Type.(*arrow.StructType); ok {
			v = dropNulls(v)
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", false, errors.Wrap(err, "encoding object value")
	}
	return string(b), true, nil
}

// dropNulls removes null members from struct values at any depth. Nulls
// inside lists are kept.
func dropNulls(v any) any {
	switch x := v.(type) {
	case Struct:
		out := make(Struct, 0, len(x))
		for _, f := range x {
			if f.Value == nil {
				continue
			}
			out = append(out, StructField{Name: f.Name, Value: dropNulls(f.Value)})
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = dropNulls(e)
		}
		return out
	}
	return v
}

func formatFloat64(v any, _ Type, _ *arrow.Field) (string, bool, error) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false, nil
	}
	return numberPrinter.Sprintf("%.4f", f), true, nil
}

// stringify is the fallback rendering for values without a specific rule.
func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case Struct, []any, map[string]any:
		if b, err := json.Marshal(x); err == nil {
			return string(b)
		}
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}
