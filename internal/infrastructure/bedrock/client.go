package bedrock

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"UpdatesScanner/internal/config"
	"UpdatesScanner/internal/ports"
)

// ErrNoImage signals that the image service answered without any image.
// Callers treat it as a soft outcome and store an empty URL.
var ErrNoImage = errors.New("no image returned from generation service")

// Client talks to a Bedrock-style invoke-model endpoint for both text
// summaries and illustrative images.
type Client struct {
	endpoint   string
	apiKey     string
	textModel  string
	imageModel string
	http       *http.Client
}

var _ ports.Summarizer = (*Client)(nil)
var _ ports.ImageGenerator = (*Client)(nil)

// NewClient creates a reusable generation client from configuration.
func NewClient(cfg config.BedrockConfig) *Client {
	return &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		textModel:  cfg.TextModelID,
		imageModel: cfg.ImageModelID,
		http:       &http.Client{Timeout: 60 * time.Second},
	}
}

type textGenerationConfig struct {
	MaxTokenCount int      `json:"maxTokenCount"`
	Temperature   float64  `json:"temperature"`
	TopP          float64  `json:"topP"`
	StopSequences []string `json:"stopSequences"`
}

type textRequest struct {
	InputText            string               `json:"inputText"`
	TextGenerationConfig textGenerationConfig `json:"textGenerationConfig"`
}

type textResponse struct {
	Results []struct {
		OutputText string `json:"outputText"`
	} `json:"results"`
}

// Summarize asks the text model for a short factual blurb. The sampling
// configuration is fixed: bounded output, low temperature, nucleus
// sampling, so repeated calls stay close to deterministic.
func (c *Client) Summarize(ctx context.Context, title, link, category string) (string, error) {
	prompt := fmt.Sprintf(`You are writing a *short, accurate* AWS What's New blurb for a weekly roundup page.
Title: %s
Category: %s
Link: %s

Write:
- 1 crisp sentence (<= 25 words) explaining what changed.
- 2 bullets: why it matters (benefit) and who should care (persona).

No speculation. No marketing fluff. Output plain text.`, title, category, link)

	payload := textRequest{
		InputText: prompt,
		TextGenerationConfig: textGenerationConfig{
			MaxTokenCount: 220,
			Temperature:   0.2,
			TopP:          0.9,
			StopSequences: []string{},
		},
	}

	var resp textResponse
	if err := c.invoke(ctx, c.textModel, payload, &resp); err != nil {
		return "", err
	}
	if len(resp.Results) == 0 {
		return "", fmt.Errorf("text model returned no results")
	}

	return strings.TrimSpace(resp.Results[0].OutputText), nil
}

type imageRequest struct {
	TaskType          string `json:"taskType"`
	TextToImageParams struct {
		Text string `json:"text"`
	} `json:"textToImageParams"`
	ImageGenerationConfig struct {
		Quality        string  `json:"quality"`
		NumberOfImages int     `json:"numberOfImages"`
		Height         int     `json:"height"`
		Width          int     `json:"width"`
		CfgScale       float64 `json:"cfgScale"`
		Seed           int     `json:"seed"`
	} `json:"imageGenerationConfig"`
}

type imageResponse struct {
	Images []string `json:"images"`
}

// GenerateImage requests exactly one 1024x512 illustration. The prompt
// pins the style and forbids embedded text and trademarks so generated
// assets stay usable on the public site.
func (c *Client) GenerateImage(ctx context.Context, title, category string) ([]byte, error) {
	prompt := fmt.Sprintf(`A clean modern tech illustration representing an AWS update in the category '%s'.
Subject inspired by: %s.
Style: flat vector, subtle gradients, dark blue background with orange accents, minimal, no text, no logos.`, category, title)

	payload := imageRequest{TaskType: "TEXT_IMAGE"}
	payload.TextToImageParams.Text = prompt
	payload.ImageGenerationConfig.Quality = "standard"
	payload.ImageGenerationConfig.NumberOfImages = 1
	payload.ImageGenerationConfig.Height = 512
	payload.ImageGenerationConfig.Width = 1024
	payload.ImageGenerationConfig.CfgScale = 7.0
	payload.ImageGenerationConfig.Seed = 0

	var resp imageResponse
	if err := c.invoke(ctx, c.imageModel, payload, &resp); err != nil {
		return nil, err
	}
	if len(resp.Images) == 0 {
		return nil, ErrNoImage
	}

	decoded, err := base64.StdEncoding.DecodeString(resp.Images[0])
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}

	return decoded, nil
}

func (c *Client) invoke(ctx context.Context, modelID string, payload any, v any) error {
	if modelID == "" {
		return fmt.Errorf("no model configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	invokeURL := fmt.Sprintf("%s/model/%s/invoke", c.endpoint, url.PathEscape(modelID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, invokeURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("invoke model %s: %w", modelID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model %s returned %s", modelID, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
