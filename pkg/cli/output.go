package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

type OutputFormat string

const (
	OutputTable OutputFormat = "table"
	OutputJSON  OutputFormat = "json"
	OutputYAML  OutputFormat = "yaml"
)

type OutputOptions struct {
	Format OutputFormat
	Quiet  bool
	Writer io.Writer
}

func NewOutputOptions() *OutputOptions {
	return &OutputOptions{
		Format: OutputTable,
		Writer: os.Stdout,
	}
}

func FormatOutput(data any, format OutputFormat) (string, error) {
	switch format {
	case OutputJSON:
		b, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal JSON: %w", err)
		}
		return string(b), nil
	case OutputYAML:
		b, err := yaml.Marshal(data)
		if err != nil {
			return "", fmt.Errorf("marshal YAML: %w", err)
		}
		return string(b), nil
	default:
		return formatTable(data)
	}
}

func formatTable(data any) (string, error) {
	if data == nil {
		return "", nil
	}

	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return "", nil
		}
		v = v.Elem()
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "No items", nil
		}
		headers := columnNames(v.Index(0).Interface())
		fmt.Fprintln(w, strings.Join(headers, "\t"))
		seps := make([]string, len(headers))
		for i := range seps {
			seps[i] = strings.Repeat("-", 10)
		}
		fmt.Fprintln(w, strings.Join(seps, "\t"))
		for i := 0; i < v.Len(); i++ {
			fmt.Fprintln(w, strings.Join(columnValues(v.Index(i).Interface()), "\t"))
		}
	case reflect.Struct:
		headers := columnNames(data)
		values := columnValues(data)
		for i, h := range headers {
			fmt.Fprintf(w, "%s\t%s\n", h, values[i])
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			fmt.Fprintf(w, "%v\t%s\n", iter.Key(), cellValue(iter.Value().Interface()))
		}
	default:
		return fmt.Sprintf("%v", data), nil
	}

	w.Flush()
	return sb.String(), nil
}

// columnNames derives table headers from exported struct fields, using
// the json tag name when present.
func columnNames(data any) []string {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return []string{"value"}
	}

	t := v.Type()
	var names []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue
		}
		name := field.Tag.Get("json")
		if idx := strings.Index(name, ","); idx != -1 {
			name = name[:idx]
		}
		if name == "" || name == "-" {
			name = field.Name
		}
		names = append(names, name)
	}
	return names
}

func columnValues(data any) []string {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return []string{cellValue(data)}
	}

	var values []string
	for i := 0; i < v.NumField(); i++ {
		if v.Type().Field(i).PkgPath != "" {
			continue
		}
		values = append(values, cellValue(v.Field(i).Interface()))
	}
	return values
}

func cellValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return fmt.Sprintf("%t", val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

func PrintOutput(data any, opts *OutputOptions) error {
	if opts.Quiet {
		return nil
	}

	output, err := FormatOutput(data, opts.Format)
	if err != nil {
		return err
	}

	fmt.Fprint(opts.Writer, output)
	if !strings.HasSuffix(output, "\n") {
		fmt.Fprintln(opts.Writer)
	}
	return nil
}

func PrintError(err error, opts *OutputOptions) {
	if opts.Format == OutputJSON || opts.Format == OutputYAML {
		data := map[string]any{
			"success": false,
			"error":   map[string]string{"message": err.Error()},
		}
		out, _ := FormatOutput(data, opts.Format)
		fmt.Fprintln(os.Stderr, out)
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

func PrintSuccess(message string, opts *OutputOptions) {
	if opts.Quiet {
		return
	}

	if opts.Format == OutputJSON || opts.Format == OutputYAML {
		data := map[string]any{
			"success": true,
			"message": message,
		}
		out, _ := FormatOutput(data, opts.Format)
		fmt.Fprintln(opts.Writer, out)
		return
	}
	fmt.Fprintln(opts.Writer, message)
}
