package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"gstvault/internal/models"
)

// OcrResult is the external OCR service's response contract.
type OcrResult struct {
	Status     string       `json:"status"`
	Message    string       `json:"message,omitempty"`
	Data       models.JSONB `json:"data"`
	Confidence *float64     `json:"confidence,omitempty"`
}

// OcrClient calls the external OCR extraction service. Non-success
// responses, network errors and timeouts are all reported as plain errors;
// the queue's retry policy treats them identically.
type OcrClient interface {
	Process(ctx context.Context, fileName string, file io.Reader, metadata map[string]string) (*OcrResult, error)
}

type httpOcrClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPOcrClient builds an OCR client with a hard per-call timeout. There
// is no mid-flight cancellation once a call starts; the worker waits for
// completion or timeout.
func NewHTTPOcrClient(baseURL string, timeout time.Duration) OcrClient {
	return &httpOcrClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *httpOcrClient) Process(ctx context.Context, fileName string, file io.Reader, metadata map[string]string) (*OcrResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy file into form: %w", err)
	}
	for key, value := range metadata {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("write form field %s: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocr service call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ocr service returned status %d", resp.StatusCode)
	}

	var result OcrResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode ocr response: %w", err)
	}
	if result.Status != "success" {
		return nil, fmt.Errorf("ocr extraction failed: %s", result.Message)
	}
	return &result, nil
}
