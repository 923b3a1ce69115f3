package config

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// ConfigField represents metadata about a config field extracted from struct tags
type ConfigField struct {
	Key      string   // e.g., "search.batch_size"
	Default  string   // default value as string
	Desc     string   // description for help text
	Min      int      // minimum value for int fields
	Max      int      // maximum value for int fields (0 = no limit)
	HasMin   bool     // min tag present
	OneOf    []string // allowed values for string fields
	Type     string   // "string", "int" or "bool"
	Category string   // e.g., "search", "display"
}

var fieldCache []ConfigField

// configFields extracts all config fields from Config using reflection
func configFields() []ConfigField {
	if fieldCache != nil {
		return fieldCache
	}

	var fields []ConfigField
	forEachField(&Config{}, func(f ConfigField, _ reflect.Value) {
		fields = append(fields, f)
	})

	sort.Slice(fields, func(i, j int) bool {
		return fields[i].Key < fields[j].Key
	})

	fieldCache = fields
	return fields
}

// forEachField walks the category structs of cfg and calls fn with the
// metadata and settable value of every tagged field.
func forEachField(cfg *Config, fn func(ConfigField, reflect.Value)) {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		section := t.Field(i)
		if section.Type.Kind() != reflect.Struct || section.Tag.Get("toml") == "" {
			continue
		}
		sv := v.Field(i)
		st := section.Type
		for j := 0; j < st.NumField(); j++ {
			field := st.Field(j)
			key := field.Tag.Get("config")
			if key == "" {
				continue
			}
			fn(parseField(field, key), sv.Field(j))
		}
	}
}

func parseField(field reflect.StructField, key string) ConfigField {
	cf := ConfigField{
		Key:      key,
		Default:  field.Tag.Get("default"),
		Desc:     field.Tag.Get("desc"),
		Category: strings.Split(key, ".")[0],
	}

	if minStr, ok := field.Tag.Lookup("min"); ok {
		cf.Min, _ = strconv.Atoi(minStr)
		cf.HasMin = true
	}
	if maxStr := field.Tag.Get("max"); maxStr != "" {
		cf.Max, _ = strconv.Atoi(maxStr)
	}
	if oneOf := field.Tag.Get("oneof"); oneOf != "" {
		cf.OneOf = strings.Split(oneOf, ",")
	}

	switch field.Type.Kind() {
	case reflect.Int:
		cf.Type = "int"
	case reflect.Bool:
		cf.Type = "bool"
	case reflect.String:
		cf.Type = "string"
	}
	return cf
}

// applyDefaults copies default tags into cfg. With onlyMissing set, only
// empty strings and ints below their minimum are replaced.
func applyDefaults(cfg *Config, onlyMissing bool) {
	forEachField(cfg, func(f ConfigField, v reflect.Value) {
		if f.Default == "" {
			return
		}
		switch v.Kind() {
		case reflect.String:
			if !onlyMissing || v.String() == "" {
				v.SetString(f.Default)
			}
		case reflect.Int:
			if !onlyMissing || (f.HasMin && int(v.Int()) < f.Min) {
				n, _ := strconv.Atoi(f.Default)
				v.SetInt(int64(n))
			}
		case reflect.Bool:
			if !onlyMissing {
				b, _ := strconv.ParseBool(f.Default)
				v.SetBool(b)
			}
		}
	})
}

func findField(key string) *ConfigField {
	for _, f := range configFields() {
		if f.Key == key {
			return &f
		}
	}
	return nil
}

// getFieldValue gets a field value from a config struct using reflection
func getFieldValue(cfg *Config, key string) (string, bool) {
	var (
		out   string
		found bool
	)
	forEachField(cfg, func(f ConfigField, v reflect.Value) {
		if f.Key != key {
			return
		}
		found = true
		switch v.Kind() {
		case reflect.String:
			out = v.String()
		case reflect.Int:
			out = strconv.FormatInt(v.Int(), 10)
		case reflect.Bool:
			out = strconv.FormatBool(v.Bool())
		}
	})
	return out, found
}

// setFieldValue sets a field value on a config struct using reflection
func setFieldValue(cfg *Config, key, value string) error {
	field := findField(key)
	if field == nil {
		return fmt.Errorf("unknown config key: %s", key)
	}

	var setErr error
	forEachField(cfg, func(f ConfigField, v reflect.Value) {
		if f.Key != key {
			return
		}
		switch v.Kind() {
		case reflect.String:
			if len(f.OneOf) > 0 && !slices.Contains(f.OneOf, value) {
				setErr = fmt.Errorf("invalid value %q for %s (expected one of: %s)", value, key, strings.Join(f.OneOf, ", "))
				return
			}
			v.SetString(value)

		case reflect.Int:
			n, err := strconv.Atoi(value)
			if err != nil {
				setErr = fmt.Errorf("invalid integer value: %s", value)
				return
			}
			if f.HasMin && n < f.Min {
				setErr = fmt.Errorf("value %d is below minimum %d", n, f.Min)
				return
			}
			if f.Max != 0 && n > f.Max {
				setErr = fmt.Errorf("value %d exceeds maximum %d", n, f.Max)
				return
			}
			v.SetInt(int64(n))

		case reflect.Bool:
			b, err := strconv.ParseBool(value)
			if err != nil {
				setErr = fmt.Errorf("invalid boolean value: %s", value)
				return
			}
			v.SetBool(b)
		}
	})
	return setErr
}

// ListKeys returns all available config keys
func ListKeys() []string {
	fields := configFields()
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	return keys
}

// GetFieldsByCategory returns config fields grouped by category
func GetFieldsByCategory() map[string][]ConfigField {
	result := make(map[string][]ConfigField)
	for _, f := range configFields() {
		result[f.Category] = append(result[f.Category], f)
	}
	return result
}

// GenerateHelpText generates help text for config options
func GenerateHelpText() string {
	var sb strings.Builder

	byCategory := GetFieldsByCategory()

	categories := []struct {
		key   string
		title string
	}{
		{"search", "Search"},
		{"display", "Display"},
		{"state", "Saved search state"},
		{"log", "Logging"},
	}

	for _, cat := range categories {
		fields := byCategory[cat.key]
		if len(fields) == 0 {
			continue
		}

		fmt.Fprintf(&sb, "  %s:\n", cat.title)
		for _, f := range fields {
			defaultStr := ""
			if f.Default != "" {
				defaultStr = fmt.Sprintf(" (default: %s)", f.Default)
			}
			fmt.Fprintf(&sb, "    %-28s %s%s\n", f.Key, f.Desc, defaultStr)
		}
		sb.WriteString("\n")
	}

	return strings.TrimSuffix(sb.String(), "\n")
}
