package definition

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Metadata is the optional per-instance metadata block of values.json.
type Metadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ValuesFile is the decoded contents of a pipeline instance's
// values.json: instance metadata plus the parameter values applied to
// the shared template.
type ValuesFile struct {
	Metadata Metadata          `json:"metadata"`
	Values   map[string]string `json:"values"`
}

// LoadValues reads and decodes a values.json file.
func LoadValues(path string) (*ValuesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read values file: %w", err)
	}

	vf := &ValuesFile{}
	if err := json.Unmarshal(data, vf); err != nil {
		return nil, fmt.Errorf("decode values file %s: %w", path, err)
	}
	if vf.Values == nil {
		vf.Values = map[string]string{}
	}
	return vf, nil
}

// rawTemplate mirrors the native JSON template layout: objects and
// parameters as loose mappings, with "id" and "name" pulled out and
// every remaining key becoming a field.
type rawTemplate struct {
	Objects    []map[string]any `json:"objects"`
	Parameters []map[string]any `json:"parameters"`
}

// LoadTemplate reads a pipeline definition template in the native JSON
// format and converts it into the typed tree. Field values may be
// literal strings, {"ref": "<id>"} references, or arrays of either
// (which become repeated fields under the same key).
func LoadTemplate(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}

	var raw rawTemplate
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode template %s: %w", path, err)
	}

	def := &Definition{}
	for _, entry := range raw.Objects {
		obj := Object{
			ID:   stringEntry(entry, "id"),
			Name: stringEntry(entry, "name"),
		}
		if obj.ID == "" {
			return nil, fmt.Errorf("template %s: object missing id", path)
		}
		obj.Fields, err = fieldsFromEntry(entry, "id", "name")
		if err != nil {
			return nil, fmt.Errorf("template %s: object %s: %w", path, obj.ID, err)
		}
		def.Objects = append(def.Objects, obj)
	}

	for _, entry := range raw.Parameters {
		param := Parameter{ID: stringEntry(entry, "id")}
		if param.ID == "" {
			return nil, fmt.Errorf("template %s: parameter missing id", path)
		}
		param.Attributes, err = fieldsFromEntry(entry, "id")
		if err != nil {
			return nil, fmt.Errorf("template %s: parameter %s: %w", path, param.ID, err)
		}
		def.Parameters = append(def.Parameters, param)
	}

	return def, nil
}

func stringEntry(entry map[string]any, key string) string {
	s, _ := entry[key].(string)
	return s
}

// fieldsFromEntry converts the remaining keys of a loose mapping into
// fields, in sorted key order so repeated loads produce identical
// trees.
func fieldsFromEntry(entry map[string]any, skip ...string) ([]Field, error) {
	skipSet := map[string]bool{}
	for _, k := range skip {
		skipSet[k] = true
	}

	keys := make([]string, 0, len(entry))
	for k := range entry {
		if !skipSet[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var fields []Field
	for _, key := range keys {
		fs, err := fieldsFromValue(key, entry[key])
		if err != nil {
			return nil, err
		}
		fields = append(fields, fs...)
	}
	return fields, nil
}

func fieldsFromValue(key string, value any) ([]Field, error) {
	switch v := value.(type) {
	case string:
		return []Field{{Key: key, StringValue: v}}, nil
	case bool:
		return []Field{{Key: key, StringValue: fmt.Sprintf("%t", v)}}, nil
	case float64:
		return []Field{{Key: key, StringValue: trimFloat(v)}}, nil
	case map[string]any:
		ref, ok := v["ref"].(string)
		if !ok {
			return nil, fmt.Errorf("field %s: object value must be a {\"ref\": ...} reference", key)
		}
		return []Field{{Key: key, RefValue: ref}}, nil
	case []any:
		var fields []Field
		for _, item := range v {
			fs, err := fieldsFromValue(key, item)
			if err != nil {
				return nil, err
			}
			fields = append(fields, fs...)
		}
		return fields, nil
	default:
		return nil, fmt.Errorf("field %s: unsupported value type %T", key, value)
	}
}

func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
