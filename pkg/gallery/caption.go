package gallery

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

// Caption generates a one-sentence alt-text description for a photo using
// AI, for use as the image description shown in the info panel and embedded
// in EXIF.
func Caption(ctx context.Context, client *genai.Client, model string, path string) (string, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	prompt := "Write one short, plain sentence describing this photograph for a gallery " +
		"visitor who cannot see it. Mention the main subject and setting. Do not mention " +
		"that it is a photo, do not speculate about people's identities, and do not use " +
		"more than 20 words."

	parts := []*genai.Part{
		genai.NewPartFromBytes(bs, "image/jpeg"),
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	return strings.TrimSpace(resp.Text()), nil
}
