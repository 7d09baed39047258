// Package ai wraps the OpenAI client for the two generation concerns this
// service has: speech transcription and per-section summarization.
package ai

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	// maxSourceChars bounds how much extracted text is sent per section
	// call. Simple head truncation; RFP source material front-loads the
	// relevant content.
	maxSourceChars = 24000
)

type Client struct {
	openAI *openai.Client
}

func NewClient(apiKey string) *Client {
	return &Client{openAI: openai.NewClient(apiKey)}
}

// Transcribe sends the raw audio to Whisper and returns the final text.
// Segments arrive in order and are already concatenated by the API; no
// diarization or timestamps are requested.
func (c *Client) Transcribe(ctx context.Context, data []byte, format string) (string, error) {
	start := time.Now()

	resp, err := c.openAI.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   bytes.NewReader(data),
		FilePath: "upload." + format, // extension tells the API the container format
	})
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}

	slog.Info("audio transcribed",
		"format", format,
		"bytes", len(data),
		"text_length", len(resp.Text),
		"duration_ms", time.Since(start).Milliseconds())

	return resp.Text, nil
}

// GenerateSection asks the model to write one RFP section scoped to the
// given topic, grounded only in the extracted source text.
func (c *Client) GenerateSection(ctx context.Context, section, sourceText string) (string, error) {
	if len(sourceText) > maxSourceChars {
		sourceText = sourceText[:maxSourceChars]
	}

	resp, err := c.openAI.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You are an RFP analyst. Given source material from a client, " +
					"write the requested section of an RFP summary document. " +
					"Use only facts present in the source. Plain prose, no markdown.",
			},
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Section to write: %q\n\nSource material:\n%s",
					section, sourceText),
			},
		},
		MaxTokens: 500,
	})
	if err != nil {
		return "", fmt.Errorf("section %q: %w", section, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("section %q: empty completion", section)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	slog.Debug("section generated",
		"section", section,
		"tokens_used", resp.Usage.TotalTokens,
		"length", len(content))

	return content, nil
}
