package renderd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/venkmine/proxx/internal/core/engine"
)

// Client is a renderd JSON-RPC client implementing engine.Client.
type Client struct {
	url    string
	secret string
	nextID atomic.Int64
	http   *http.Client
}

var _ engine.Client = (*Client)(nil)

func NewClient(url, secret string) *Client {
	return &Client{
		url:    url,
		secret: secret,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	// Prepend secret token if set
	allParams := make([]any, 0, len(params)+1)
	if c.secret != "" {
		allParams = append(allParams, "token:"+c.secret)
	}
	allParams = append(allParams, params...)

	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      fmt.Sprintf("%d", c.nextID.Add(1)),
		Method:  method,
		Params:  allParams,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if rpcResp.Error != nil {
		return nil, fmt.Errorf("renderd rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	raw, err := json.Marshal(rpcResp.Result)
	if err != nil {
		return nil, fmt.Errorf("re-marshal result: %w", err)
	}
	return raw, nil
}

func (c *Client) Version(ctx context.Context) (string, error) {
	raw, err := c.call(ctx, "renderd.version")
	if err != nil {
		return "", err
	}
	var result struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", err
	}
	return result.Version, nil
}

func (c *Client) Capabilities(ctx context.Context) (engine.Capabilities, error) {
	raw, err := c.call(ctx, "renderd.capabilities")
	if err != nil {
		return engine.Capabilities{}, err
	}
	var result capabilitiesResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return engine.Capabilities{}, fmt.Errorf("parse capabilities: %w", err)
	}
	return engine.Capabilities{
		Codecs:        result.Codecs,
		Containers:    result.Containers,
		Deliveries:    result.Deliveries,
		HardwareAccel: result.HardwareAccel,
		MaxTasks:      result.MaxTasks,
	}, nil
}

func (c *Client) Health(ctx context.Context) engine.HealthStatus {
	start := time.Now()
	_, err := c.Version(ctx)
	latency := time.Since(start)
	if err != nil {
		return engine.HealthStatus{OK: false, Message: err.Error(), Latency: latency}
	}
	return engine.HealthStatus{OK: true, Latency: latency}
}

// Create submits a new job and returns the id renderd assigned. An empty id
// on a successful call is passed through as-is; the caller decides what an
// unusable id means.
func (c *Client) Create(ctx context.Context, req engine.CreateRequest) (string, error) {
	params := createParams{
		Name:           req.Name,
		Sources:        req.SourcePaths,
		OutputDir:      req.OutputDir,
		Codec:          req.Codec,
		Container:      req.Container,
		NamingTemplate: req.NamingTemplate,
		Delivery:       req.Delivery,
	}
	raw, err := c.call(ctx, "job.create", params)
	if err != nil {
		return "", err
	}
	var result createResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("parse create result: %w", err)
	}
	return result.ID, nil
}

func (c *Client) Start(ctx context.Context, id string) error {
	_, err := c.call(ctx, "job.start", id)
	return err
}

func (c *Client) Pause(ctx context.Context, id string) error {
	_, err := c.call(ctx, "job.pause", id)
	return err
}

func (c *Client) Resume(ctx context.Context, id string) error {
	_, err := c.call(ctx, "job.resume", id)
	return err
}

func (c *Client) Cancel(ctx context.Context, id string) error {
	_, err := c.call(ctx, "job.cancel", id)
	return err
}

func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.call(ctx, "job.delete", id)
	return err
}

func (c *Client) List(ctx context.Context) ([]engine.JobRecord, error) {
	raw, err := c.call(ctx, "job.list")
	if err != nil {
		return nil, err
	}
	var infos []jobInfo
	if err := json.Unmarshal(raw, &infos); err != nil {
		return nil, fmt.Errorf("parse job list: %w", err)
	}
	records := make([]engine.JobRecord, 0, len(infos))
	for _, info := range infos {
		records = append(records, info.toRecord())
	}
	return records, nil
}

func (c *Client) Detail(ctx context.Context, id string) (engine.JobDetail, error) {
	raw, err := c.call(ctx, "job.detail", id)
	if err != nil {
		return engine.JobDetail{}, err
	}
	var detail jobDetail
	if err := json.Unmarshal(raw, &detail); err != nil {
		return engine.JobDetail{}, fmt.Errorf("parse job detail: %w", err)
	}
	return detail.toDetail(), nil
}
