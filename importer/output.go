package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"okvars/common"
	"okvars/state"
)

func marshal(format common.OutputFmt, v any) ([]byte, error) {
	switch format {
	case common.OutputFmtJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case common.OutputFmtYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unsupported output format %q", format)
}

// writeReport serializes v in requested format to destination file or to
// standard output when destination is empty or "-". Copy goes to debug report.
func writeReport(env *state.LocalEnv, dst, name string, v any) error {
	data, err := marshal(env.Format, v)
	if err != nil {
		return fmt.Errorf("unable to prepare %s report: %w", name, err)
	}
	env.Rpt.StoreData(name+"."+env.Format.String(), data)

	if len(dst) == 0 || dst == StdinName {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("unable to write %s report: %w", name, err)
		}
		return nil
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return fmt.Errorf("unable to write %s report: %w", name, err)
	}
	return nil
}
