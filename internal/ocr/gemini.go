package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// transcribePrompt is shared by the LLM engines. The extractors do the
// parsing, so the model is only asked to read.
const transcribePrompt = `Transcribe all text in this receipt or invoice image exactly as printed.
Keep the original line breaks and the order of lines from top to bottom.
Keep currency symbols, numbers, dates and order numbers exactly as written.
Do not summarize, translate, correct or explain anything.
Do not use markdown. Output only the transcribed text.`

// Gemini implements Engine using Google Gemini
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a new Gemini engine
func NewGemini(ctx context.Context, apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)

	return &Gemini{
		client: client,
		model:  model,
	}, nil
}

// GeminiFactory returns an EngineFactory that opens a Gemini client per image.
func GeminiFactory(apiKey, modelName string) EngineFactory {
	return func(ctx context.Context) (Engine, error) {
		g, err := NewGemini(ctx, apiKey, modelName)
		if err != nil {
			return nil, err
		}
		return g, nil
	}
}

// Recognize sends the image to Gemini and returns the transcription
func (g *Gemini) Recognize(ctx context.Context, path string) (string, error) {
	imageData, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}

	// genai.ImageData wants the format suffix, not the MIME type
	resp, err := g.model.GenerateContent(ctx, genai.ImageData("png", imageData), genai.Text(transcribePrompt))
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return stripFences(text.String()), nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}

// stripFences removes a markdown code fence some models add anyway
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
