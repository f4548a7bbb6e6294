package script

import (
	"cmp"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strconv"
)

// stringify returns the text written for a value.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""

	case string:
		return val

	case bool:
		return strconv.FormatBool(val)

	case int:
		return strconv.Itoa(val)

	case int64:
		return strconv.FormatInt(val, 10)

	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)

	case []byte:
		return string(val)

	case fmt.Stringer:
		return val.String()

	case error:
		return val.Error()

	default:
		return fmt.Sprint(val)
	}
}

// iterate calls fn with each key and element of v.
//
// Strings yield (index, rune as string), slices and arrays yield
// (index, element), maps yield (key, value) in sorted key order, and
// integers n yield (i, i) for i in [0, n). A nil value yields nothing.
func iterate(v any, fn func(key, val any) (bool, error)) error {
	if v == nil {
		return nil
	}

	switch val := v.(type) {
	case string:
		i := 0

		for _, r := range val {
			ok, err := fn(i, string(r))
			if err != nil || !ok {
				return err
			}

			i++
		}

		return nil

	case []any:
		for i, e := range val {
			ok, err := fn(i, e)
			if err != nil || !ok {
				return err
			}
		}

		return nil
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := range rv.Len() {
			ok, err := fn(i, rv.Index(i).Interface())
			if err != nil || !ok {
				return err
			}
		}

	case reflect.Map:
		keys := rv.MapKeys()
		slices.SortFunc(keys, compareKeys)

		for _, k := range keys {
			ok, err := fn(k.Interface(), rv.MapIndex(k).Interface())
			if err != nil || !ok {
				return err
			}
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		for i := range rv.Int() {
			ok, err := fn(int(i), int(i))
			if err != nil || !ok {
				return err
			}
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		for i := range rv.Uint() {
			ok, err := fn(int(i), int(i))
			if err != nil || !ok {
				return err
			}
		}

	default:
		return ErrNotIterable.With(slog.String("type", fmt.Sprintf("%T", v)))
	}

	return nil
}

func compareKeys(a, b reflect.Value) int {
	switch {
	case a.CanInt() && b.CanInt():
		return cmp.Compare(a.Int(), b.Int())
	case a.CanUint() && b.CanUint():
		return cmp.Compare(a.Uint(), b.Uint())
	case a.CanFloat() && b.CanFloat():
		return cmp.Compare(a.Float(), b.Float())
	}

	return cmp.Compare(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
}
