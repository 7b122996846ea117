package genapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ModelParams holds the per-model generation knobs.
type ModelParams struct {
	Version           string
	Width             int
	Height            int
	NumInferenceSteps int
	GuidanceScale     float64
	SupportsNegative  bool
}

// Known model presets. The map key is the short name used in configuration.
var modelParams = map[string]ModelParams{
	"sticker-maker": {
		Version:           "fofr/sticker-maker:4acb778eb059772225ec213948f0660867b2e03f277448f18cf1800b96a65a1a",
		Width:             1024,
		Height:            1024,
		NumInferenceSteps: 17,
		SupportsNegative:  true,
	},
	"sdxl-lightning": {
		Version:           "bytedance/sdxl-lightning-4step:5f24084160c9089501c1b3545d9be3c27883ae2239b6f412990e82d4a6210f8f",
		Width:             1024,
		Height:            1024,
		NumInferenceSteps: 4,
		GuidanceScale:     0,
		SupportsNegative:  true,
	},
	"flux-schnell": {
		Version:           "black-forest-labs/flux-schnell",
		Width:             1024,
		Height:            1024,
		NumInferenceSteps: 4,
		SupportsNegative:  false,
	},
}

// PredictionRequest is the payload submitted to the predictions endpoint.
type PredictionRequest struct {
	Version string                 `json:"version"`
	Input   map[string]interface{} `json:"input"`
}

// PredictionResponse covers both the submit response and the poll response.
type PredictionResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output,omitempty"`
	Error  *string         `json:"error,omitempty"`
}

// Result carries the downloaded image plus generation metadata.
type Result struct {
	Image             []byte
	ImageURL          string
	Model             string
	GenerationSeconds float64
}

// SubmitPrediction starts a generation and returns the prediction id.
func (c *Client) SubmitPrediction(ctx context.Context, prompt, negativePrompt string) (string, error) {
	params, ok := modelParams[c.model]
	if !ok {
		return "", fmt.Errorf("unknown model: %s", c.model)
	}

	input := map[string]interface{}{
		"prompt": prompt,
		"width":  params.Width,
		"height": params.Height,
	}
	if params.NumInferenceSteps > 0 {
		input["num_inference_steps"] = params.NumInferenceSteps
	}
	if params.GuidanceScale > 0 {
		input["guidance_scale"] = params.GuidanceScale
	}
	if params.SupportsNegative && negativePrompt != "" {
		input["negative_prompt"] = negativePrompt
	}

	payload := PredictionRequest{Version: params.Version, Input: input}

	c.logger.Debug("submitting prediction",
		zap.String("model", c.model),
		zap.String("prompt", prompt),
	)

	url := strings.TrimSuffix(c.baseURL, "/") + "/v1/predictions"
	respBody, err := c.doPostRequest(ctx, url, payload)
	if err != nil {
		return "", fmt.Errorf("prediction submission failed: %w", err)
	}

	var response PredictionResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", fmt.Errorf("failed to unmarshal submission response: %w, body: %s", err, string(respBody))
	}
	if response.ID == "" {
		return "", fmt.Errorf("prediction id not found in submission response: %s", string(respBody))
	}
	return response.ID, nil
}

// GetPrediction fetches the current state of a prediction.
func (c *Client) GetPrediction(ctx context.Context, predictionID string) (*PredictionResponse, error) {
	url := fmt.Sprintf("%s/v1/predictions/%s", strings.TrimSuffix(c.baseURL, "/"), predictionID)
	body, err := c.doGetRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prediction %s: %w", predictionID, err)
	}

	var response PredictionResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prediction response: %w, body: %s", err, string(body))
	}
	return &response, nil
}

// PollForResult polls the prediction until it finishes, then downloads the
// first output image.
func (c *Client) PollForResult(ctx context.Context, predictionID string, pollInterval time.Duration) (*Result, error) {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("polling timed out for prediction %s: %w", predictionID, ctx.Err())
		case <-ticker.C:
			pred, err := c.GetPrediction(ctx, predictionID)
			if err != nil {
				return nil, fmt.Errorf("error polling prediction %s: %w", predictionID, err)
			}

			c.logger.Debug("polling prediction",
				zap.String("prediction_id", predictionID),
				zap.String("status", pred.Status),
			)

			switch pred.Status {
			case "succeeded":
				imageURL, err := firstOutputURL(pred.Output)
				if err != nil {
					return nil, fmt.Errorf("prediction %s succeeded without output: %w", predictionID, err)
				}
				image, err := c.DownloadImage(ctx, imageURL)
				if err != nil {
					return nil, err
				}
				return &Result{
					Image:             image,
					ImageURL:          imageURL,
					Model:             c.model,
					GenerationSeconds: time.Since(start).Seconds(),
				}, nil
			case "failed", "canceled":
				errMsg := "generation " + pred.Status
				if pred.Error != nil && *pred.Error != "" {
					errMsg = fmt.Sprintf("generation %s: %s", pred.Status, *pred.Error)
				}
				return nil, fmt.Errorf("%s (prediction_id: %s)", errMsg, predictionID)
			case "starting", "processing":
				continue
			default:
				return nil, fmt.Errorf("unknown status %q for prediction %s", pred.Status, predictionID)
			}
		}
	}
}

// Generate runs the full submit/poll/download cycle for one prompt.
func (c *Client) Generate(ctx context.Context, prompt, negativePrompt string, pollInterval time.Duration) (*Result, error) {
	predictionID, err := c.SubmitPrediction(ctx, prompt, negativePrompt)
	if err != nil {
		return nil, err
	}
	return c.PollForResult(ctx, predictionID, pollInterval)
}

// firstOutputURL extracts the first URL from a prediction output, which can
// be either a bare string or an array of strings depending on the model.
func firstOutputURL(output json.RawMessage) (string, error) {
	if len(output) == 0 {
		return "", fmt.Errorf("empty output")
	}
	var single string
	if err := json.Unmarshal(output, &single); err == nil && single != "" {
		return single, nil
	}
	var list []string
	if err := json.Unmarshal(output, &list); err == nil && len(list) > 0 && list[0] != "" {
		return list[0], nil
	}
	return "", fmt.Errorf("unrecognized output format: %s", string(output))
}
