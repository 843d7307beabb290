package filter

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// literalEscaper doubles single quotes. An already escaped quote pair
// %27%27 is escaped again, matching the escaping pass the listing
// service applies before it parses the filter.
var literalEscaper = strings.NewReplacer("'", "''", "%27%27", "%27%27%27%27")

// escapeString escapes a string value for use inside a quoted literal.
func escapeString(s string) string {
	return literalEscaper.Replace(s)
}

// quoteLiteral returns a string literal with proper escaping.
func quoteLiteral(s string) string {
	return "'" + escapeString(s) + "'"
}

// formatBool returns the grammar's boolean tokens.
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// formatLiteral formats a Go value as a filter literal.
//
// Strings are quoted, booleans become true/false, numbers are written in
// base 10, times are written as unquoted RFC 3339 timestamps in UTC and
// UUIDs as unquoted GUIDs. nil and nil pointers become null.
// Other composite values have no literal form and are rejected.
func formatLiteral(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "null", nil
	case string:
		return quoteLiteral(v), nil
	case bool:
		return formatBool(v), nil
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano), nil
	case uuid.UUID:
		return v.String(), nil
	}
	return formatValue(reflect.ValueOf(v))
}

// formatValue formats values of named and pointer types by kind.
func formatValue(rv reflect.Value) (string, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "null", nil
		}
		return formatLiteral(rv.Elem().Interface())
	case reflect.String:
		return quoteLiteral(rv.String()), nil
	case reflect.Bool:
		return formatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", &UnsupportedOperationError{Tag: "CONSTANT(" + strconv.FormatFloat(f, 'g', -1, 64) + ")"}
		}
		return strconv.FormatFloat(f, 'g', -1, rv.Type().Bits()), nil
	case reflect.Struct:
		if s, ok := rv.Interface().(fmt.Stringer); ok {
			return quoteLiteral(s.String()), nil
		}
	}
	return "", &UnsupportedOperationError{Tag: "CONSTANT(" + rv.Type().String() + ")"}
}
