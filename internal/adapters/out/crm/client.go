package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"golang.org/x/sync/singleflight"
)

const (
	codeInvalidToken  = "INVALID_TOKEN"
	codeDuplicateData = "DUPLICATE_DATA"
	codeSuccess       = "SUCCESS"
)

// Config holds the CRM endpoints and OAuth refresh credentials.
type Config struct {
	APIHost      string
	AccountsHost string
	ClientID     string
	ClientSecret string
	RefreshToken string
	// AccessToken seeds the client; an empty value forces a refresh on first 401.
	AccessToken string
}

// Client talks to the CRM REST API. It never retries; the sync adapter does.
type Client struct {
	cfg  Config
	http *http.Client

	mu    sync.RWMutex
	token string

	refresh singleflight.Group
}

var _ ports.CRMClient = (*Client)(nil)

func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if cfg.APIHost == "" {
		return nil, errs.NewValueIsRequiredError("apiHost")
	}
	if cfg.AccountsHost == "" {
		return nil, errs.NewValueIsRequiredError("accountsHost")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		cfg:   cfg,
		http:  httpClient,
		token: cfg.AccessToken,
	}, nil
}

// record is one entry of a CRM response "data" array.
type record struct {
	Code    string `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Details struct {
		ID string `json:"id"`
		// Duplicate responses name the existing record here.
		DuplicateRecord struct {
			ID string `json:"id"`
		} `json:"duplicate_record"`
	} `json:"details"`
	ID string `json:"id"`
}

type envelope struct {
	Data    []record `json:"data"`
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Status  string   `json:"status"`
}

func (c *Client) SearchProductByMPN(ctx context.Context, mpn string) (string, error) {
	q := url.Values{}
	q.Set("criteria", fmt.Sprintf("(Mfg_Part_Number:equals:%s)", mpn))

	var env envelope
	status, err := c.do(ctx, http.MethodGet, "Products/search?"+q.Encode(), nil, &env)
	if err != nil {
		return "", err
	}
	if status == http.StatusNoContent || len(env.Data) == 0 {
		return "", nil
	}
	return env.Data[0].ID, nil
}

func (c *Client) CreateProduct(ctx context.Context, p ports.CRMProduct) (string, error) {
	body := map[string]any{
		"data": []map[string]any{{
			"Product_Name":     p.Name,
			"Product_Code":     p.SKU,
			"Mfg_Part_Number":  p.MPN,
			"Manufacturer":     p.Manufacturer,
			"Product_Category": p.Category,
			"FFL_Required":     p.RequiresFFL,
			"UPC":              p.UPC,
			"Unit_Price":       p.UnitPrice.InexactFloat64(),
		}},
	}

	var env envelope
	if _, err := c.do(ctx, http.MethodPost, "Products", body, &env); err != nil {
		return "", err
	}
	return firstRecordID(env)
}

// pipelineStages maps deal order statuses to CRM pipeline stages.
var pipelineStages = map[string]string{
	"Submitted":         "Proposal/Price Quote",
	"Hold":              "Qualification",
	"Confirmed":         "Needs Analysis",
	"Processing":        "Value Proposition",
	"Received":          "Value Proposition",
	"Partially Shipped": "Id. Decision Makers",
	"Shipped":           "Perception Analysis",
	"Delivered":         "Closed Won",
	"Rejected":          "Closed Lost",
	"Cancelled":         "Closed Lost",
}

// PipelineStage returns the pipeline stage for an order status. Unknown
// statuses land in Qualification.
func PipelineStage(orderStatus string) string {
	if stage, ok := pipelineStages[orderStatus]; ok {
		return stage
	}
	return "Qualification"
}

func (c *Client) UpsertDeal(ctx context.Context, d ports.CRMDeal) (string, error) {
	lines := make([]map[string]any, 0, len(d.Lines))
	for _, l := range d.Lines {
		lines = append(lines, map[string]any{
			"Product_Lookup": map[string]string{"id": l.ProductID},
			"Quantity":       l.Quantity,
			"Unit_Price":     l.UnitPrice.InexactFloat64(),
		})
	}

	body := map[string]any{
		"data": []map[string]any{{
			"Deal_Name":        d.OrderNumber,
			"TGF_Order_Number": d.OrderNumber,
			"Stage":            PipelineStage(d.OrderStatus),
			"Order_Status":     d.OrderStatus,
			"Fulfillment_Type": d.Outcome,
			"Ordering_Account": d.OrderingAccount,
			"Amount":           d.Amount.InexactFloat64(),
			"Consignee":        d.ConsigneeName,
			"FFL_License":      d.FFLLicense,
			"Ship_State":       d.ShipState,
			"Test_Order":       d.IsTest,
			"Subform_1":        lines,
		}},
		"duplicate_check_fields": []string{"TGF_Order_Number"},
	}

	var env envelope
	if _, err := c.do(ctx, http.MethodPost, "Deals/upsert", body, &env); err != nil {
		return "", err
	}
	return firstRecordID(env)
}

// UpdateDealStatus moves the deal's order status and its pipeline stage
// together.
func (c *Client) UpdateDealStatus(ctx context.Context, dealID, status string) error {
	body := map[string]any{
		"data": []map[string]any{{
			"Order_Status": status,
			"Stage":        PipelineStage(status),
		}},
	}

	var env envelope
	if _, err := c.do(ctx, http.MethodPut, "Deals/"+url.PathEscape(dealID), body, &env); err != nil {
		return err
	}
	_, err := firstRecordID(env)
	return err
}

// RefreshAuth exchanges the refresh token for a new access token. Concurrent
// callers share one in-flight exchange.
func (c *Client) RefreshAuth(ctx context.Context) error {
	_, err, _ := c.refresh.Do("token", func() (any, error) {
		return nil, c.exchangeToken(ctx)
	})
	return err
}

func (c *Client) exchangeToken(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("refresh_token", c.cfg.RefreshToken)

	endpoint := strings.TrimRight(c.cfg.AccountsHost, "/") + "/oauth/v2/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("token refresh failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		Error       string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return fmt.Errorf("decode token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || tok.AccessToken == "" {
		return &ports.CRMError{
			Kind:       ports.CRMAuth,
			StatusCode: resp.StatusCode,
			Code:       tok.Error,
			Message:    "token refresh rejected",
		}
	}

	c.mu.Lock()
	c.token = tok.AccessToken
	c.mu.Unlock()
	return nil
}

func (c *Client) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}

	endpoint := strings.TrimRight(c.cfg.APIHost, "/") + "/crm/v2/" + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+c.accessToken())
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &ports.CRMError{Kind: ports.CRMUnavailable, Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &ports.CRMError{Kind: ports.CRMUnavailable, StatusCode: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, responseError(resp.StatusCode, raw)
	}
	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0 {
		return http.StatusNoContent, nil
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}

func responseError(status int, raw []byte) error {
	var env envelope
	_ = json.Unmarshal(raw, &env)

	code, message := env.Code, env.Message
	if len(env.Data) > 0 && code == "" {
		code, message = env.Data[0].Code, env.Data[0].Message
	}
	if message == "" {
		message = http.StatusText(status)
	}

	ce := &ports.CRMError{StatusCode: status, Code: code, Message: message}
	switch {
	case status == http.StatusUnauthorized || code == codeInvalidToken:
		ce.Kind = ports.CRMAuth
	case status == http.StatusTooManyRequests:
		ce.Kind = ports.CRMRateLimited
	case code == codeDuplicateData:
		ce.Kind = ports.CRMDuplicate
		if len(env.Data) > 0 {
			ce.DuplicateID = env.Data[0].Details.DuplicateRecord.ID
		}
	case status >= http.StatusInternalServerError:
		ce.Kind = ports.CRMUnavailable
	default:
		ce.Kind = ports.CRMValidation
	}
	return ce
}

// firstRecordID reads the id of the first record of a write response. The CRM
// answers 2xx even when the record itself was rejected.
func firstRecordID(env envelope) (string, error) {
	if len(env.Data) == 0 {
		return "", &ports.CRMError{Kind: ports.CRMUnavailable, Message: "empty response"}
	}
	r := env.Data[0]
	switch r.Code {
	case codeSuccess, "":
		if r.Details.ID != "" {
			return r.Details.ID, nil
		}
		if r.ID != "" {
			return r.ID, nil
		}
		return "", errors.New("crm response carried no record id")
	case codeDuplicateData:
		return "", &ports.CRMError{
			Kind:        ports.CRMDuplicate,
			Code:        r.Code,
			Message:     r.Message,
			DuplicateID: r.Details.DuplicateRecord.ID,
		}
	case codeInvalidToken:
		return "", &ports.CRMError{Kind: ports.CRMAuth, Code: r.Code, Message: r.Message}
	default:
		return "", &ports.CRMError{Kind: ports.CRMValidation, Code: r.Code, Message: r.Message}
	}
}
