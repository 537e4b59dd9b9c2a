package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/dane"
	httpclient "github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/http"
)

const (
	// DANEBaseURL is the DIVIPOLA dataset on datos.gov.co.
	DANEBaseURL = "https://www.datos.gov.co/resource/gdxc-w37w.json"
	// DefaultTimeout is the default timeout for DANE API requests.
	DefaultTimeout = 10 * time.Second
	// pageSize is the Socrata page size used when listing the registry.
	pageSize = 1000
)

// Client implements dane.Service over the datos.gov.co Socrata API.
type Client struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

// NewClient creates a DANE client. An empty baseURL uses DANEBaseURL and a
// nil httpClient gets DefaultTimeout.
func NewClient(baseURL string, httpClient *http.Client, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DANEBaseURL
	}
	if httpClient == nil {
		httpClient = httpclient.NewClient(&httpclient.ClientConfig{Timeout: DefaultTimeout})
	}

	return &Client{
		baseURL: baseURL,
		client:  httpClient,
		log:     log,
	}
}

type daneResponse struct {
	CodDpto string `json:"cod_dpto"`
	Dpto    string `json:"dpto"`
	CodMpio string `json:"cod_mpio"`
	NomMpio string `json:"nom_mpio"`
}

func (r daneResponse) municipality() dane.Municipality {
	return dane.Municipality{
		Code:           r.CodMpio,
		Name:           r.NomMpio,
		DepartmentCode: r.CodDpto,
		DepartmentName: r.Dpto,
	}
}

// GetMunicipalityByCode looks up one DIVIPOLA code.
func (c *Client) GetMunicipalityByCode(ctx context.Context, code string) (*dane.Municipality, error) {
	if code == "" {
		return nil, fmt.Errorf("DIVIPOLA code must not be empty")
	}

	results, err := c.query(ctx, url.Values{"cod_mpio": {code}})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("code %s: %w", code, dane.ErrMunicipalityNotFound)
	}

	result := results[0]
	if result.CodMpio == "" || result.NomMpio == "" || result.CodDpto == "" || result.Dpto == "" {
		c.log.Warn("DANE API response missing required fields", "code", code, "result", result)
		return nil, fmt.Errorf("incomplete DANE response for code %s", code)
	}

	m := result.municipality()
	return &m, nil
}

// ListMunicipalities pages through the whole registry.
func (c *Client) ListMunicipalities(ctx context.Context) ([]dane.Municipality, error) {
	var all []dane.Municipality
	for offset := 0; ; offset += pageSize {
		page, err := c.query(ctx, url.Values{
			"$select": {"cod_dpto,dpto,cod_mpio,nom_mpio"},
			"$order":  {"cod_mpio"},
			"$limit":  {strconv.Itoa(pageSize)},
			"$offset": {strconv.Itoa(offset)},
		})
		if err != nil {
			return nil, err
		}
		for _, r := range page {
			all = append(all, r.municipality())
		}
		if len(page) < pageSize {
			break
		}
	}

	c.log.Debug("Listed DANE municipalities", "count", len(all))
	return all, nil
}

func (c *Client) query(ctx context.Context, params url.Values) ([]daneResponse, error) {
	apiURL, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	query := apiURL.Query()
	for k, v := range params {
		query[k] = v
	}
	apiURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("Error consulting DANE API", "error", err)
		return nil, fmt.Errorf("DANE API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warn("DANE API returned non-200 status", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("DANE API returned status %d", resp.StatusCode)
	}

	var results []daneResponse
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("parse DANE API response: %w", err)
	}
	return results, nil
}
