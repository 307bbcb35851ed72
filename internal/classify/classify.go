// Package classify resolves a requested product to a 4-digit HS
// classification code, using an LLM collaborator with a deterministic keyword
// table as fallback.
package classify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/supplier-cli/internal/metrics"
	"github.com/sells-group/supplier-cli/pkg/anthropic"
)

// Code sources.
const (
	SourceCollaborator = "collaborator"
	SourceFallback     = "fallback"
)

// Resolver is the classification collaborator.
type Resolver interface {
	Resolve(ctx context.Context, productName, category string) (string, error)
}

// LLMResolver asks Claude for the HS code.
type LLMResolver struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewLLMResolver creates a Resolver backed by the Anthropic client.
func NewLLMResolver(client anthropic.Client, model string) *LLMResolver {
	return &LLMResolver{client: client, model: model, maxTokens: 20}
}

const classifyPrompt = `As a trade expert, provide the most appropriate HS (Harmonized System) code for the following product:
Product Name: %s
Product Category: %s
Return only the 4-digit HS code without any explanation.`

// Resolve implements Resolver. A response without a 4-digit run is an error.
func (r *LLMResolver) Resolve(ctx context.Context, productName, category string) (string, error) {
	temp := 0.1
	text, err := anthropic.Complete(ctx, r.client, anthropic.MessageRequest{
		Model:       r.model,
		MaxTokens:   r.maxTokens,
		Temperature: &temp,
	}, fmt.Sprintf(classifyPrompt, productName, category), "classify")
	if err != nil {
		return "", eris.Wrap(err, "classify: llm resolve")
	}
	code := ExtractCode(text)
	if code == "" {
		return "", eris.Errorf("classify: no 4-digit code in response %q", text)
	}
	return code, nil
}

// Result is a resolved classification.
type Result struct {
	Code   string
	Source string
}

// Classifier combines a Resolver with the fallback table.
type Classifier struct {
	resolver Resolver
	table    Table
	timeout  time.Duration
	metrics  *metrics.Metrics
}

// NewClassifier creates a Classifier. A nil resolver always uses the table;
// an empty table uses DefaultTable.
func NewClassifier(resolver Resolver, table Table, timeout time.Duration, m *metrics.Metrics) *Classifier {
	if len(table) == 0 {
		table = DefaultTable()
	}
	return &Classifier{resolver: resolver, table: table, timeout: timeout, metrics: m}
}

// Classify never fails: resolver errors or timeouts fall back to the table.
func (c *Classifier) Classify(ctx context.Context, productName, category string) Result {
	if c.resolver != nil {
		rctx := ctx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			rctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
		code, err := c.resolver.Resolve(rctx, productName, category)
		if err == nil && isCode(strings.TrimSpace(code)) {
			c.metrics.IncClassification(SourceCollaborator)
			zap.L().Debug("classification resolved", zap.String("product", productName), zap.String("code", code))
			return Result{Code: strings.TrimSpace(code), Source: SourceCollaborator}
		}
		zap.L().Warn("classification collaborator failed, using fallback table",
			zap.String("product", productName),
			zap.String("category", category),
			zap.Error(err),
		)
	}
	c.metrics.IncClassification(SourceFallback)
	return Result{Code: c.table.Lookup(productName, category), Source: SourceFallback}
}
