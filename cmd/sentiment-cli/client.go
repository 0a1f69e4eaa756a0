package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"yashubustudio/sentiment/sentiment"
)

// remoteClient posts reviews to a running sentiment server.
type remoteClient struct {
	baseURL string
	http    *http.Client
}

func newRemoteClient(baseURL string, timeout time.Duration) *remoteClient {
	return &remoteClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type remoteError struct {
	Error string `json:"error"`
	Type  string `json:"type"`
}

func (c *remoteClient) Predict(ctx context.Context, review string) (sentiment.Result, error) {
	body, err := json.Marshal(map[string]string{"review": review})
	if err != nil {
		return sentiment.Result{}, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return sentiment.Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return sentiment.Result{}, fmt.Errorf("post review: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return sentiment.Result{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var rerr remoteError
		if json.Unmarshal(data, &rerr) == nil && rerr.Error != "" {
			return sentiment.Result{}, fmt.Errorf("server returned %d (%s): %s", resp.StatusCode, rerr.Type, rerr.Error)
		}
		return sentiment.Result{}, fmt.Errorf("server returned %d", resp.StatusCode)
	}

	var result sentiment.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return sentiment.Result{}, fmt.Errorf("decode response: %w", err)
	}
	return result, nil
}

// PredictAll posts reviews one by one and stops at the first failure.
func (c *remoteClient) PredictAll(ctx context.Context, reviews []string) ([]sentiment.Result, error) {
	out := make([]sentiment.Result, 0, len(reviews))
	for i, review := range reviews {
		res, err := c.Predict(ctx, review)
		if err != nil {
			return nil, fmt.Errorf("review %d: %w", i, err)
		}
		out = append(out, res)
	}
	return out, nil
}
