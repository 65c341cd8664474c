package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	hjson "github.com/hjson/hjson-go/v4"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v2"

	"evalup/pkg/core/evaluation"
	"evalup/pkg/core/finance"
	"evalup/pkg/core/ingest"
	"evalup/pkg/core/report"
)

// document is an evaluation request read from disk.
type document struct {
	Company          report.Company `json:"company" yaml:"company"`
	evaluation.Input `yaml:",inline"`
}

type inputOptions struct {
	Sheet      string
	Charset    string
	Extraction bool
}

// loadDocument reads path according to its extension. Request documents
// (.json, .yaml, .hjson) carry the full input; statements (.xlsx, .csv,
// .html) carry years only. With Extraction set, a .json or .txt file is read
// as loosely formatted extraction output.
func loadDocument(path string, opts inputOptions) (*document, error) {
	ext := strings.ToLower(filepath.Ext(path))

	if opts.Extraction || ext == ".txt" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "read %s", path)
		}
		years, err := ingest.FromExtraction(string(data))
		if err != nil {
			return nil, err
		}
		return yearsOnly(years), nil
	}

	switch ext {
	case ".json", ".yaml", ".yml", ".hjson":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "read %s", path)
		}
		return decodeDocument(data, ext)
	case ".xlsx":
		years, err := ingest.FromXLSX(path, opts.Sheet)
		if err != nil {
			return nil, err
		}
		return yearsOnly(years), nil
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "open %s", path)
		}
		defer f.Close() //nolint:errcheck
		years, err := ingest.FromCSV(f)
		if err != nil {
			return nil, err
		}
		return yearsOnly(years), nil
	case ".html", ".htm":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "open %s", path)
		}
		defer f.Close() //nolint:errcheck
		years, err := ingest.FromHTMLTable(f, opts.Charset)
		if err != nil {
			return nil, err
		}
		return yearsOnly(years), nil
	default:
		return nil, eris.Errorf("unsupported input format %q", ext)
	}
}

func yearsOnly(years []finance.FinancialYear) *document {
	return &document{Input: evaluation.Input{Years: years}}
}

func decodeDocument(data []byte, ext string) (*document, error) {
	var doc document
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, eris.Wrap(err, "decode yaml input")
		}
	case ".hjson":
		var tree interface{}
		if err := hjson.Unmarshal(data, &tree); err != nil {
			return nil, eris.Wrap(err, "decode hjson input")
		}
		raw, err := json.Marshal(tree)
		if err != nil {
			return nil, eris.Wrap(err, "re-encode hjson input")
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, eris.Wrap(err, "decode hjson input")
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, eris.Wrap(err, "decode json input")
		}
	}
	return &doc, nil
}
