package scanning

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// visionPrompt asks the model to act as a plain OCR engine so the downstream
// price extractor sees the same shape of text as the OCR.space path.
const visionPrompt = `Read all text printed on this receipt image and return it exactly as written, line by line. Return only the text from the image, with no commentary, no markdown, and no reformatting.`

// Vision implements the TextExtractor interface using Google Gemini
type Vision struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewVision creates a new Gemini-backed extractor
func NewVision(apiKey string, modelName string) (*Vision, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Vision{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

// ExtractText recognizes text in a receipt image. Normalized images are always
// JPEG, so the image part is tagged "jpeg".
func (v *Vision) ExtractText(ctx context.Context, image []byte) (*ScanResult, error) {
	parts := []genai.Part{
		genai.ImageData("jpeg", image),
		genai.Text(visionPrompt),
	}

	resp, err := v.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, ErrNoTextDetected
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	out := strings.TrimSpace(text.String())
	if out == "" {
		return nil, ErrNoTextDetected
	}

	return &ScanResult{Text: out}, nil
}

// Close closes the Gemini client
func (v *Vision) Close() error {
	return v.client.Close()
}
