package valuation

import (
	"github.com/rotisserie/eris"
	"github.com/xeipuuv/gojsonschema"
)

const evaluateRequestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["years"],
  "properties": {
    "session_id": {"type": "string", "maxLength": 128},
    "user_id": {"type": "string", "maxLength": 128},
    "company": {
      "type": "object",
      "properties": {
        "name": {"type": "string"},
        "siren": {"type": "string"},
        "naf_code": {"type": "string"}
      }
    },
    "years": {
      "type": "array",
      "maxItems": 20,
      "items": {
        "type": "object",
        "required": ["year"],
        "properties": {
          "year": {"type": "integer", "minimum": 1900, "maximum": 2100},
          "source": {"enum": ["registry", "document", "manual"]},
          "revenue": {"type": "number"},
          "operating_result": {"type": "number"},
          "depreciation_amortization": {"type": "number"},
          "net_result": {"type": "number"},
          "equity": {"type": "number"},
          "cash": {"type": "number"},
          "financial_debt": {"type": "number"},
          "inventory": {"type": "number"},
          "trade_receivables": {"type": "number"},
          "trade_payables": {"type": "number"},
          "provisions": {"type": "number"},
          "payroll": {"type": ["number", "null"]},
          "total_assets": {"type": ["number", "null"]},
          "total_liabilities": {"type": ["number", "null"]}
        }
      }
    },
    "profile": {
      "type": "object",
      "properties": {
        "sector": {"type": "string"},
        "naf_code": {"type": "string"},
        "recurring_pct": {"type": "number", "minimum": 0, "maximum": 100},
        "growth_pct": {"type": ["number", "null"]},
        "payroll_ratio": {"type": ["number", "null"], "minimum": 0},
        "has_recurring_billing": {"type": "boolean"},
        "has_physical_store": {"type": "boolean"},
        "has_real_estate_holdings": {"type": "boolean"},
        "archetype": {"type": "string"}
      }
    },
    "adjustments": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["kind", "impact"],
        "properties": {
          "kind": {"enum": ["owner_salary", "rent", "lease_reinstatement", "exceptional_charges", "other"]},
          "label": {"type": "string"},
          "impact": {"type": "number"},
          "rationale": {"type": "string"}
        }
      }
    },
    "qualitative": {
      "type": "object",
      "properties": {
        "founder_dependence": {"type": "integer", "minimum": 0, "maximum": 3},
        "top_client_share_pct": {"type": "number", "minimum": 0, "maximum": 100},
        "recurring_pct": {"type": "number", "minimum": 0, "maximum": 100},
        "history_years": {"type": "integer", "minimum": 0}
      }
    },
    "net_assets": {
      "type": "object",
      "properties": {
        "assets": {"type": "array", "items": {"$ref": "#/definitions/line"}},
        "liabilities": {"type": "array", "items": {"$ref": "#/definitions/line"}}
      }
    },
    "comparables": {
      "type": "object",
      "properties": {
        "source": {"type": "string"},
        "ebitda_multiples": {"type": "array", "items": {"type": "number", "exclusiveMinimum": 0}},
        "revenue_multiples": {"type": "array", "items": {"type": "number", "exclusiveMinimum": 0}},
        "price_low": {"type": ["number", "null"]},
        "price_high": {"type": ["number", "null"]}
      }
    }
  },
  "definitions": {
    "line": {
      "type": "object",
      "required": ["amount"],
      "properties": {
        "label": {"type": "string"},
        "amount": {"type": "number"}
      }
    }
  }
}`

var evaluateSchema = mustSchema(evaluateRequestSchema)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(err)
	}
	return s
}

// errInvalidJSON is returned when the body is not a JSON document at all.
var errInvalidJSON = eris.New("request body is not valid JSON")

// validateEvaluateRequest checks body against the request schema and returns
// one message per violation.
func validateEvaluateRequest(body []byte) ([]string, error) {
	result, err := evaluateSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, eris.Wrap(errInvalidJSON, err.Error())
	}
	if result.Valid() {
		return nil, nil
	}
	errs := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		errs[i] = desc.String()
	}
	return errs, nil
}
