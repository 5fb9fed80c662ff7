package catalog

import (
	"gopkg.in/yaml.v3"

	"github.com/ruoyangqiu/5300-Giraffe/internal/value"
)

// yamlRow is the YAML-friendly reduction of a value.Row: each column's
// value.Value wrapper is unwrapped to its underlying Go scalar first, since
// value.Value itself has no yaml tags to marshal against.
type yamlRow map[string]any

// FormatResultYAML renders a SHOW/SELECT result (columns plus rows) as a
// single YAML document. This is the engine's --format=yaml counterpart to
// the REPL's default column-and-dashes text table.
func FormatResultYAML(columns []string, rows []value.Row) (string, error) {
	out := struct {
		Columns []string  `yaml:"columns"`
		Rows    []yamlRow `yaml:"rows"`
	}{Columns: columns}

	for _, row := range rows {
		yr := make(yamlRow, len(columns))
		for _, c := range columns {
			v, ok := row[c]
			if !ok {
				continue
			}
			switch v.Kind() {
			case value.KindInt:
				yr[c] = v.Int()
			case value.KindText:
				yr[c] = v.Text()
			case value.KindBool:
				yr[c] = v.Bool()
			}
		}
		out.Rows = append(out.Rows, yr)
	}

	b, err := yaml.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
