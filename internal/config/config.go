package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// EnvPrefix is prepended to every `env` tag when looking up overrides.
const EnvPrefix = "PADNODE_"

var durationType = reflect.TypeOf(time.Duration(0))

// LoadConfig fills the tagged fields of opts, a pointer to a struct, from
// the TOML file named by its Config field and then from PADNODE_*
// variables. Flags set on cmd's command line are left alone, so the
// order of precedence is flags, environment, file, defaults.
func LoadConfig(opts any, cmd *cobra.Command) error {
	v := reflect.ValueOf(opts).Elem()

	fromFlag := map[string]bool{}
	if cmd != nil {
		cmd.Flags().Visit(func(f *pflag.Flag) { fromFlag[f.Name] = true })
	}
	fields := func(yield func(reflect.StructField, reflect.Value) bool) {
		for i := range v.NumField() {
			sf := v.Type().Field(i)
			if fromFlag[fieldNameToFlag(sf.Name)] {
				continue
			}
			if !yield(sf, v.Field(i)) {
				return
			}
		}
	}

	if f := v.FieldByName("Config"); f.IsValid() && f.Kind() == reflect.String && f.String() != "" {
		if err := applyFile(f.String(), fields); err != nil {
			return err
		}
	}
	return applyEnv(fields)
}

type fieldSeq = func(yield func(reflect.StructField, reflect.Value) bool)

// applyFile sets fields from their `toml` paths. A missing file is not
// an error.
func applyFile(path string, fields fieldSeq) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	for sf, fv := range fields {
		key := sf.Tag.Get("toml")
		if key == "" {
			continue
		}
		value := getNestedValue(doc, key)
		if value == nil {
			continue
		}
		if err := setFieldValue(fv, value); err != nil {
			return fmt.Errorf("config %s: %w", key, err)
		}
	}
	return nil
}

// applyEnv sets fields from EnvPrefix plus their `env` tag.
func applyEnv(fields fieldSeq) error {
	for sf, fv := range fields {
		key := sf.Tag.Get("env")
		if key == "" {
			continue
		}
		raw, ok := os.LookupEnv(EnvPrefix + key)
		if !ok || raw == "" {
			continue
		}
		if err := setFieldValueFromString(fv, raw); err != nil {
			return fmt.Errorf("env %s%s: %w", EnvPrefix, key, err)
		}
	}
	return nil
}

// fieldNameToFlag converts a struct field name to a CLI flag name.
// Example: "LoggingLevel" -> "logging-level", "APIAddr" -> "api-addr".
func fieldNameToFlag(fieldName string) string {
	runes := []rune(fieldName)
	var result []rune
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (nextLower && unicode.IsUpper(runes[i-1])) {
				result = append(result, '-')
			}
		}
		result = append(result, unicode.ToLower(r))
	}
	return string(result)
}

// getNestedValue retrieves a value from nested map using dot notation.
func getNestedValue(data map[string]any, path string) any {
	parts := strings.Split(path, ".")
	current := data

	for i, part := range parts {
		if i == len(parts)-1 {
			return current[part]
		}
		next, ok := current[part].(map[string]any)
		if !ok {
			return nil
		}
		current = next
	}
	return nil
}

// setFieldValue sets a field from a decoded TOML value.
func setFieldValue(field reflect.Value, value any) error {
	if !field.CanSet() {
		return nil
	}

	if field.Type() == durationType {
		switch d := value.(type) {
		case string:
			parsed, err := time.ParseDuration(d)
			if err != nil {
				return err
			}
			field.SetInt(int64(parsed))
		case int64:
			field.SetInt(d * int64(time.Millisecond))
		default:
			return fmt.Errorf("want duration, got %T", value)
		}
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		if s, ok := value.(string); ok {
			field.SetString(s)
		}
	case reflect.Bool:
		if b, ok := value.(bool); ok {
			field.SetBool(b)
		}
	case reflect.Int, reflect.Int64:
		if i, ok := value.(int64); ok {
			field.SetInt(i)
		} else if i, intOk := value.(int); intOk {
			field.SetInt(int64(i))
		}
	case reflect.Uint8:
		if i, ok := value.(int64); ok {
			if i < 0 || i > 255 {
				return fmt.Errorf("value %d out of range", i)
			}
			field.SetUint(uint64(i))
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			if arr, ok := value.([]any); ok {
				slice := make([]string, 0, len(arr))
				for _, v := range arr {
					if s, strOk := v.(string); strOk {
						slice = append(slice, s)
					}
				}
				field.Set(reflect.ValueOf(slice))
			}
		}
	}
	return nil
}

// setFieldValueFromString sets a field value from string (for env vars).
func setFieldValueFromString(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	if field.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int64:
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)
	case reflect.Uint8:
		i, err := strconv.ParseUint(value, 10, 8)
		if err != nil {
			return err
		}
		field.SetUint(i)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			slice := make([]string, len(parts))
			for i, part := range parts {
				slice[i] = strings.TrimSpace(part)
			}
			field.Set(reflect.ValueOf(slice))
		}
	}
	return nil
}
