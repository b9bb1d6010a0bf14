package binder

import (
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
)

// Query binds URL query parameters into the struct pointed to by v using the
// `query` tag. Untagged fields use their lowercased name; "-" skips a field.
// Supported field kinds are string, signed integers, bool and pointers to
// those.
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			return fmt.Errorf("%w: target must be a non-nil pointer to struct", ErrFailedToParseQuery)
		}
		rv = rv.Elem()
		rt := rv.Type()
		values := r.URL.Query()

		for i := range rv.NumField() {
			field := rv.Field(i)
			sf := rt.Field(i)
			if !field.CanSet() {
				continue
			}
			name := queryName(sf)
			if name == "" || !values.Has(name) {
				continue
			}
			if err := setValue(field, values.Get(name)); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrFailedToParseQuery, name, err)
			}
		}
		return nil
	}
}

func queryName(sf reflect.StructField) string {
	tag := sf.Tag.Get("query")
	switch tag {
	case "-":
		return ""
	case "":
		return strings.ToLower(sf.Name)
	}
	name, _, _ := strings.Cut(tag, ",")
	return name
}

func setValue(field reflect.Value, raw string) error {
	if field.Kind() == reflect.Pointer {
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return setValue(field.Elem(), raw)
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer %q", raw)
		}
		field.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid bool %q", raw)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported type %s", field.Kind())
	}
	return nil
}
