package flow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gopkg.in/yaml.v3"

	"github.com/voyantlabs/voyant-agent/internal/domain"
)

// extractYAML pulls the YAML document out of a model response. Models tend
// to wrap structured output in a fenced block; without a fence the whole
// response is treated as YAML.
func extractYAML(s string) string {
	if idx := strings.Index(s, "```yaml"); idx >= 0 {
		rest := s[idx+len("```yaml"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	if idx := strings.Index(s, "```"); idx >= 0 {
		rest := s[idx+3:]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	}
	return strings.TrimSpace(s)
}

// generateDecoded calls the model and decodes the fenced YAML in its
// response into T. Malformed output is retried with backoff up to attempts
// total tries; generation and decoding count as one attempt together since
// a decode failure needs a fresh completion anyway.
func generateDecoded[T any](ctx context.Context, llm domain.LLMClient, prompt string, attempts int) (T, error) {
	var decoded T
	op := func() error {
		raw, err := llm.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		var out T
		if err := yaml.Unmarshal([]byte(extractYAML(raw)), &out); err != nil {
			return fmt.Errorf("decoding model output: %w", err)
		}
		decoded = out
		return nil
	}
	if err := retryOp(ctx, attempts, op); err != nil {
		return decoded, err
	}
	return decoded, nil
}

// generateText calls the model for free-form prose with the same bounded
// retry policy.
func generateText(ctx context.Context, llm domain.LLMClient, prompt string, attempts int) (string, error) {
	var text string
	op := func() error {
		raw, err := llm.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		if strings.TrimSpace(raw) == "" {
			return fmt.Errorf("model returned empty text")
		}
		text = raw
		return nil
	}
	if err := retryOp(ctx, attempts, op); err != nil {
		return "", err
	}
	return text, nil
}

func retryOp(ctx context.Context, attempts int, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(attempts-1)), ctx))
}
