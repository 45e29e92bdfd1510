package scanning

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultOCRSpaceEndpoint = "https://api.ocr.space/parse/image"

// OCRSpace implements the TextExtractor interface using the OCR.space API
type OCRSpace struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewOCRSpace creates a new OCR.space extractor. An empty endpoint uses the
// public API.
func NewOCRSpace(apiKey, endpoint string) (*OCRSpace, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ocr.space api key is required")
	}
	if endpoint == "" {
		endpoint = defaultOCRSpaceEndpoint
	}

	return &OCRSpace{
		endpoint: endpoint,
		apiKey:   apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// ocrSpaceResponse is the provider's JSON envelope
type ocrSpaceResponse struct {
	IsErroredOnProcessing bool                 `json:"IsErroredOnProcessing"`
	ErrorMessage          flexibleErrorMessage `json:"ErrorMessage"`
	ParsedResults         []ocrSpaceResult     `json:"ParsedResults"`
}

type ocrSpaceResult struct {
	ParsedText  string `json:"ParsedText"`
	TextOverlay *struct {
		MeanConfidence float64 `json:"MeanConfidence"`
	} `json:"TextOverlay"`
}

// ExtractText sends the image to OCR.space and returns the best parsed result.
// One attempt per call; retries are always user-initiated.
func (o *OCRSpace) ExtractText(ctx context.Context, image []byte) (*ScanResult, error) {
	params := url.Values{}
	params.Set("apikey", o.apiKey)
	params.Set("language", "eng")
	params.Set("isOverlayRequired", "false")
	params.Set("detectOrientation", "true")
	params.Set("scale", "true")
	params.Set("OCREngine", "2")
	params.Set("filetype", "jpg")
	params.Set("base64Image", "data:image/jpeg;base64,"+base64.StdEncoding.EncodeToString(image))

	req, err := http.NewRequestWithContext(ctx, "POST", o.endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling OCR service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("OCR service error (status %d): %s", resp.StatusCode, string(body))
	}

	var envelope ocrSpaceResponse
	if err := decodeJSON(resp.Body, &envelope); err != nil {
		return nil, fmt.Errorf("decoding OCR response: %w", err)
	}

	if envelope.IsErroredOnProcessing {
		msg := envelope.ErrorMessage.String()
		if msg == "" {
			msg = "OCR processing failed"
		}
		return nil, fmt.Errorf("OCR processing failed: %s", msg)
	}

	if len(envelope.ParsedResults) == 0 {
		return nil, ErrNoTextDetected
	}

	best := envelope.ParsedResults[0]
	if strings.TrimSpace(best.ParsedText) == "" {
		return nil, ErrNoTextDetected
	}

	result := &ScanResult{Text: best.ParsedText}
	if best.TextOverlay != nil {
		result.Confidence = best.TextOverlay.MeanConfidence
	}
	return result, nil
}

// Close closes the extractor (no-op for HTTP client)
func (o *OCRSpace) Close() error {
	return nil
}

// flexibleErrorMessage accepts the provider's ErrorMessage field, which is a
// string on some plans and an array of strings on others.
type flexibleErrorMessage []string

func (f *flexibleErrorMessage) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" {
			*f = flexibleErrorMessage{single}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*f = flexibleErrorMessage(many)
	return nil
}

func (f flexibleErrorMessage) String() string {
	return strings.Join(f, "; ")
}

func decodeJSON(r io.Reader, v interface{}) error {
	return json.NewDecoder(r).Decode(v)
}
