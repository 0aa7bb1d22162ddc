package settings

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/randalmurphal/codexmonitor/apperr"
)

// Keys returns the settable field names in their JSON spelling.
func Keys() []string {
	t := reflect.TypeOf(AppSettings{})
	keys := make([]string, 0, t.NumField())
	for i := range t.NumField() {
		keys = append(keys, tagName(t.Field(i), "json"))
	}
	sort.Strings(keys)
	return keys
}

// SetField assigns value to the field named key. key may be the JSON
// (codexArgs) or YAML (codex_args) spelling; booleans accept the forms
// strconv.ParseBool does.
func SetField(s *AppSettings, key, value string) error {
	key = strings.TrimSpace(key)
	v := reflect.ValueOf(s).Elem()
	t := v.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		if !strings.EqualFold(key, tagName(f, "json")) && !strings.EqualFold(key, tagName(f, "yaml")) {
			continue
		}
		field := v.Field(i)
		switch field.Kind() {
		case reflect.Bool:
			b, err := strconv.ParseBool(strings.TrimSpace(value))
			if err != nil {
				return apperr.Newf(apperr.KindValidation, "", "%s expects true or false, got %q", tagName(f, "json"), value)
			}
			field.SetBool(b)
		case reflect.String:
			if f.Name == "BackendMode" {
				value = strings.TrimSpace(value)
				if mode := BackendMode(value); mode != BackendLocal && mode != BackendRemote {
					return apperr.Newf(apperr.KindValidation, "", "backendMode must be local or remote, got %q", value)
				}
			}
			field.SetString(value)
		default:
			return fmt.Errorf("unsupported field kind %s", field.Kind())
		}
		return nil
	}
	return apperr.Newf(apperr.KindValidation, "", "unknown setting %q (known: %s)", key, strings.Join(Keys(), ", "))
}

func tagName(f reflect.StructField, tag string) string {
	name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
	if name == "" {
		return f.Name
	}
	return name
}
