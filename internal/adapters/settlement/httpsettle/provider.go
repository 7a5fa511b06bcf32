package httpsettle

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pet-adoption/internal/domain/escrow"
	"pet-adoption/internal/platform/httpclient"
)

// Provider habla con un servicio de settlement externo por HTTP/JSON:
//
//	POST /escrows                 {amount}      -> {reference}
//	POST /escrows/{ref}/release                 -> {txHash}
//	POST /escrows/{ref}/refund                  -> {txHash}
type Provider struct {
	client *httpclient.Client
	token  string
}

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

var _ escrow.Provider = (*Provider)(nil)

func New(cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("httpsettle: base url required")
	}
	c, err := httpclient.NewWithBaseURL(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &Provider{client: c, token: strings.TrimSpace(cfg.Token)}, nil
}

// NewWithClient permite inyectar el cliente (tests).
func NewWithClient(c *httpclient.Client, token string) *Provider {
	return &Provider{client: c, token: token}
}

type createReq struct {
	Amount int64 `json:"amount"`
}

type createResp struct {
	Reference string `json:"reference"`
}

type settleResp struct {
	TxHash string `json:"txHash"`
}

func (p *Provider) Create(ctx context.Context, amount int64) (string, error) {
	var out createResp
	if err := p.client.DoJSON(ctx, http.MethodPost, "/escrows", p.headers(), createReq{Amount: amount}, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Reference) == "" {
		return "", errors.New("httpsettle: empty reference")
	}
	return out.Reference, nil
}

func (p *Provider) Release(ctx context.Context, reference string) (string, error) {
	return p.settle(ctx, reference, "release")
}

func (p *Provider) Refund(ctx context.Context, reference string) (string, error) {
	return p.settle(ctx, reference, "refund")
}

func (p *Provider) settle(ctx context.Context, reference, op string) (string, error) {
	if strings.TrimSpace(reference) == "" {
		return "", errors.New("httpsettle: reference required")
	}
	var out settleResp
	path := "/escrows/" + url.PathEscape(reference) + "/" + op
	if err := p.client.DoJSON(ctx, http.MethodPost, path, p.headers(), nil, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.TxHash) == "" {
		return "", errors.New("httpsettle: empty tx hash")
	}
	return out.TxHash, nil
}

func (p *Provider) headers() map[string]string {
	if p.token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + p.token}
}
