package ingest

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
	"github.com/rotisserie/eris"

	"evalup/pkg/core/finance"
)

// ErrUnparseableExtraction is returned when every parsing strategy fails.
var ErrUnparseableExtraction = eris.New("ingest: extraction output is not parseable")

// extractionKeys are the top-level keys that may hold the year list.
var extractionKeys = []string{"years", "exercices", "annees", "financials", "finances"}

// FromExtraction converts the JSON produced by a document extraction step
// into financial years. Model output is often malformed, so parsing falls
// back from strict JSON to Hjson and then to json-repair. Keys may be French or
// English and amounts may be numbers or French-formatted strings.
func FromExtraction(raw string) ([]finance.FinancialYear, error) {
	doc, err := smartParse(stripCodeFence(raw))
	if err != nil {
		return nil, err
	}

	list, err := yearList(doc)
	if err != nil {
		return nil, err
	}

	rs := records{}
	for i, item := range list {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, eris.Errorf("ingest: extraction year #%d is not an object", i)
		}
		r, err := recordFromObject(obj)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: extraction year #%d", i)
		}
		rs.merge(records{r.year: r})
	}
	years := rs.years(finance.SourceDocument)
	if len(years) == 0 {
		return nil, ErrNoFinancialData
	}
	return years, nil
}

// smartParse decodes input into an object or array, trying strict JSON,
// then Hjson (comments, unquoted keys, trailing commas), then json-repair
// (truncated output, stray prose).
func smartParse(input string) (interface{}, error) {
	// 1. Standard JSON
	var doc interface{}
	if err := json.Unmarshal([]byte(input), &doc); err == nil && isContainer(doc) {
		return doc, nil
	}

	// 2. Hjson, round-tripped through JSON for plain map and float64 values
	var loose interface{}
	if err := hjson.Unmarshal([]byte(input), &loose); err == nil {
		if normalized, err := json.Marshal(loose); err == nil {
			doc = nil
			if err := json.Unmarshal(normalized, &doc); err == nil && isContainer(doc) {
				return doc, nil
			}
		}
	}

	// 3. JSON repair
	if repaired, err := jsonrepair.RepairJSON(input); err == nil {
		doc = nil
		if err := json.Unmarshal([]byte(repaired), &doc); err == nil && isContainer(doc) {
			return doc, nil
		}
	}

	return nil, ErrUnparseableExtraction
}

// stripCodeFence removes an outer Markdown code block (```json ... ```).
func stripCodeFence(input string) string {
	cleaned := strings.TrimSpace(input)
	if !strings.HasPrefix(cleaned, "```") || !strings.HasSuffix(cleaned, "```") || len(cleaned) < 6 {
		return cleaned
	}
	cleaned = strings.TrimSuffix(strings.TrimPrefix(cleaned, "```"), "```")
	// drop the info string (json, hjson, ...)
	if nl := strings.IndexByte(cleaned, '\n'); nl >= 0 && !strings.ContainsAny(cleaned[:nl], "{[") {
		cleaned = cleaned[nl+1:]
	}
	return strings.TrimSpace(cleaned)
}

func isContainer(v interface{}) bool {
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		return true
	}
	return false
}

func yearList(doc interface{}) ([]interface{}, error) {
	switch v := doc.(type) {
	case []interface{}:
		return v, nil
	case map[string]interface{}:
		for _, want := range extractionKeys {
			for key, val := range v {
				if foldLabel(key) != want {
					continue
				}
				if list, ok := val.([]interface{}); ok {
					return list, nil
				}
			}
		}
		if _, ok := findYear(v); ok {
			return []interface{}{v}, nil
		}
	}
	return nil, eris.Wrap(ErrNoFinancialData, "ingest: extraction has no year list")
}

func recordFromObject(obj map[string]interface{}) (*record, error) {
	year, ok := findYear(obj)
	if !ok {
		return nil, eris.New("missing fiscal year")
	}
	r := newRecord(year)
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		f, ok := lookupField(key)
		if !ok {
			continue
		}
		if v, ok := toAmount(obj[key]); ok {
			r.set(f, v)
		}
	}
	return r, nil
}

func findYear(obj map[string]interface{}) (int, bool) {
	for key, val := range obj {
		if !yearKeys[foldLabel(key)] {
			continue
		}
		switch v := val.(type) {
		case float64:
			return int(v), v > 0
		case string:
			return parseYear(v)
		}
	}
	return 0, false
}

func toAmount(val interface{}) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := strconv.ParseFloat(string(v), 64)
		return f, err == nil
	case string:
		return ParseAmount(strings.TrimSpace(v))
	}
	return 0, false
}
