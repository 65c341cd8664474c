package ingest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"evalup/pkg/core/finance"
)

// DefaultPappersBaseURL is the public registry API endpoint.
const DefaultPappersBaseURL = "https://api.pappers.fr/v2"

var (
	// ErrCompanyNotFound is returned when the registry has no such SIREN.
	ErrCompanyNotFound = eris.New("ingest: company not found")
	// ErrUnauthorized is returned when the API key is rejected.
	ErrUnauthorized = eris.New("ingest: registry API key rejected")
)

// Company is a registry record reduced to what the engine needs.
type Company struct {
	SIREN   string                  `json:"siren"`
	Name    string                  `json:"name"`
	NAFCode string                  `json:"naf_code"`
	NAFName string                  `json:"naf_label"`
	Years   []finance.FinancialYear `json:"years"`
}

// RegistryClient fetches published accounts.
type RegistryClient interface {
	FetchFinances(ctx context.Context, siren string) (*Company, error)
}

// PappersOption configures the Pappers client.
type PappersOption func(*PappersClient)

// WithPappersBaseURL sets a custom base URL (for testing).
func WithPappersBaseURL(u string) PappersOption {
	return func(c *PappersClient) { c.baseURL = u }
}

// WithPappersHTTPClient sets a custom HTTP client.
func WithPappersHTTPClient(hc *http.Client) PappersOption {
	return func(c *PappersClient) { c.http = hc }
}

// WithPappersTimeout sets the HTTP client timeout.
func WithPappersTimeout(d time.Duration) PappersOption {
	return func(c *PappersClient) { c.http = &http.Client{Transport: c.http.Transport, Timeout: d} }
}

// PappersClient reads company accounts from the Pappers API.
type PappersClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewPappersClient creates a client with a 10 s timeout.
func NewPappersClient(apiKey string, opts ...PappersOption) *PappersClient {
	c := &PappersClient{
		apiKey:  apiKey,
		baseURL: DefaultPappersBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// pappersCompany is the subset of /entreprise we read.
type pappersCompany struct {
	SIREN    string           `json:"siren"`
	Name     string           `json:"nom_entreprise"`
	NAFCode  string           `json:"code_naf"`
	NAFLabel string           `json:"libelle_code_naf"`
	Finances []pappersFinance `json:"finances"`
}

// pappersFinance is one published year. Absent lines are null.
type pappersFinance struct {
	Year             int      `json:"annee"`
	Revenue          *float64 `json:"chiffre_affaires"`
	NetResult        *float64 `json:"resultat"`
	EBITDA           *float64 `json:"excedent_brut_exploitation"`
	OperatingResult  *float64 `json:"resultat_exploitation"`
	Equity           *float64 `json:"capitaux_propres"`
	Cash             *float64 `json:"tresorerie"`
	FinancialDebt    *float64 `json:"dettes_financieres"`
	Inventory        *float64 `json:"stocks"`
	TradeReceivables *float64 `json:"creances_clients"`
	TradePayables    *float64 `json:"dettes_fournisseurs"`
	Provisions       *float64 `json:"provisions"`
	Payroll          *float64 `json:"charges_personnel"`
}

// FetchFinances validates siren and returns the company with its published
// years, oldest first.
func (c *PappersClient) FetchFinances(ctx context.Context, siren string) (*Company, error) {
	siren, err := ValidateSIREN(siren)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("siren", siren)
	q.Set("api_token", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/entreprise?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "pappers: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "pappers: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, eris.Wrapf(ErrCompanyNotFound, "siren %s", siren)
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, eris.Errorf("pappers: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var pc pappersCompany
	if err := json.NewDecoder(resp.Body).Decode(&pc); err != nil {
		return nil, eris.Wrap(err, "pappers: decode response")
	}
	return pc.toCompany(siren), nil
}

func (pc pappersCompany) toCompany(siren string) *Company {
	rs := records{}
	for _, f := range pc.Finances {
		if f.Year == 0 {
			continue
		}
		r := rs.get(f.Year)
		for fld, v := range map[field]*float64{
			fieldRevenue: f.Revenue, fieldNetResult: f.NetResult, fieldEBITDA: f.EBITDA,
			fieldOperatingResult: f.OperatingResult, fieldEquity: f.Equity, fieldCash: f.Cash,
			fieldFinancialDebt: f.FinancialDebt, fieldInventory: f.Inventory,
			fieldTradeReceivables: f.TradeReceivables, fieldTradePayables: f.TradePayables,
			fieldProvisions: f.Provisions, fieldPayroll: f.Payroll,
		} {
			if v != nil {
				r.set(fld, *v)
			}
		}
	}

	if pc.SIREN != "" {
		siren = pc.SIREN
	}
	return &Company{
		SIREN:   siren,
		Name:    pc.Name,
		NAFCode: pc.NAFCode,
		NAFName: pc.NAFLabel,
		Years:   rs.years(finance.SourceRegistry),
	}
}
