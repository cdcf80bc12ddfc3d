// Package brasilapi looks up company-registry data by CNPJ via the
// BrasilAPI public endpoint.
package brasilapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/klug-labs/closing-cli/internal/model"
)

const defaultBaseURL = "https://brasilapi.com.br/api/cnpj/v1"

// Sentinel errors for the two response classes the enrichment loop treats
// specially. Everything else is an identifier-local transport failure.
var (
	ErrNotFound    = eris.New("brasilapi: cnpj not found")
	ErrRateLimited = eris.New("brasilapi: rate limited")
)

// Client looks up registry attributes for a cleaned 14-digit CNPJ.
type Client interface {
	Lookup(ctx context.Context, cnpj string) (*model.Enrichment, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a BrasilAPI client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// companyResponse mirrors the subset of the BrasilAPI payload the pipeline
// consumes. Numeric codes arrive as JSON numbers and are kept as their
// string form for categorical encoding.
type companyResponse struct {
	CNAEFiscal          json.Number `json:"cnae_fiscal"`
	Porte               string      `json:"porte"`
	NaturezaJuridica    string      `json:"natureza_juridica"`
	DataInicioAtividade string      `json:"data_inicio_atividade"`
	SituacaoCadastral   json.Number `json:"situacao_cadastral"`
	UF                  string      `json:"uf"`
	Municipio           string      `json:"municipio"`
}

func (c *httpClient) Lookup(ctx context.Context, cnpj string) (*model.Enrichment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+cnpj, nil)
	if err != nil {
		return nil, eris.Wrap(err, "brasilapi: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "brasilapi: send request")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusBadRequest:
		// 400 means the identifier itself is invalid; treated the same as
		// an unknown CNPJ.
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, eris.Errorf("brasilapi: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var company companyResponse
	if err := json.NewDecoder(resp.Body).Decode(&company); err != nil {
		return nil, eris.Wrap(err, "brasilapi: decode response")
	}

	return company.toEnrichment(), nil
}

func (r companyResponse) toEnrichment() *model.Enrichment {
	e := &model.Enrichment{}
	set := func(dst **string, v string) {
		if v != "" {
			*dst = &v
		}
	}
	set(&e.CNAE, r.CNAEFiscal.String())
	set(&e.CompanySize, r.Porte)
	set(&e.LegalNature, r.NaturezaJuridica)
	set(&e.ActivityStart, r.DataInicioAtividade)
	set(&e.RegistrationStatus, r.SituacaoCadastral.String())
	set(&e.State, r.UF)
	set(&e.Municipality, r.Municipio)
	return e
}
