package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/Thiagobarros01/hotel-reservation/internal/service"
)

type Address struct {
	CEP          string `json:"cep"`
	Street       string `json:"logradouro"`
	Neighborhood string `json:"bairro"`
	City         string `json:"localidade"`
	State        string `json:"uf"`
}

type AddressLookup interface {
	Lookup(ctx context.Context, cep string) (*Address, error)
}

type ViaCEPClient struct {
	baseURL string
	http    *http.Client
}

var _ AddressLookup = (*ViaCEPClient)(nil)

func NewViaCEPClient(baseURL string, timeout time.Duration) *ViaCEPClient {
	return &ViaCEPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// NormalizeCEP strips punctuation and checks that exactly 8 digits remain.
func NormalizeCEP(cep string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r == '-' || r == '.' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, cep)
	if len(digits) != 8 {
		return "", fmt.Errorf("%w: cep must have 8 digits", service.ErrInvalidInput)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: cep must have 8 digits", service.ErrInvalidInput)
		}
	}
	return digits, nil
}

func (c *ViaCEPClient) Lookup(ctx context.Context, cep string) (*Address, error) {
	cep, err := NormalizeCEP(cep)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/ws/%s/json/", c.baseURL, cep), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", service.ErrServiceUnavailable, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: viacep unreachable: %w", service.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: viacep rejected cep %s", service.ErrInvalidInput, cep)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: viacep returned %d", service.ErrServiceUnavailable, resp.StatusCode)
	}

	// viacep answers 200 with {"erro": true} (older deployments use the
	// string "true") for well-formed but unknown ceps
	var body struct {
		Address
		Erro any `json:"erro"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode viacep response: %w", service.ErrServiceUnavailable, err)
	}
	if body.Erro == true || body.Erro == "true" {
		return nil, fmt.Errorf("cep %s: %w", cep, service.ErrNotFound)
	}
	return &body.Address, nil
}
