// Package explain builds the structured context handed to the explanation
// collaborator and produces the recommendation prose.
package explain

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/supplier-cli/internal/model"
	"github.com/sells-group/supplier-cli/pkg/anthropic"
)

// SupplierContext is one ranked supplier as the explainer sees it.
type SupplierContext struct {
	Rank           int             `json:"rank"`
	Name           string          `json:"name"`
	Score          float64         `json:"score"`
	Domain         model.Domain    `json:"domain"`
	Location       string          `json:"location"`
	ComplaintCount int             `json:"complaint_count"`
	Factors        model.FactorSet `json:"factors"`
}

// Context is the explainer input: ordered top suppliers plus a product and
// location descriptor.
type Context struct {
	Product   model.ProductInfo `json:"product"`
	Suppliers []SupplierContext `json:"suppliers"`
}

// Explainer turns a Context into prose. The result is passed through
// unmodified.
type Explainer interface {
	Explain(ctx context.Context, c Context) (string, error)
}

// BuildContext assembles the explainer context from ranked suppliers.
func BuildContext(product model.ProductInfo, top []model.ScoredSupplier) Context {
	c := Context{Product: product, Suppliers: make([]SupplierContext, 0, len(top))}
	for i, s := range top {
		c.Suppliers = append(c.Suppliers, SupplierContext{
			Rank:           i + 1,
			Name:           s.Supplier.Name,
			Score:          s.CompositeScore,
			Domain:         s.Supplier.Domain,
			Location:       displayLocation(s.Supplier),
			ComplaintCount: s.ComplaintCount,
			Factors:        s.Factors,
		})
	}
	return c
}

func displayLocation(r model.SupplierRecord) string {
	city, country := strings.TrimSpace(r.CityValue()), strings.TrimSpace(r.CountryValue())
	if city == "" {
		city = "N/A"
	}
	if country == "" {
		country = "N/A"
	}
	return city + ", " + country
}

// Render formats the context as the plain-text block embedded in prompts.
func (c Context) Render() string {
	var b strings.Builder
	source := c.Product.SourceLocation
	if source == "" {
		source = "unknown"
	}
	fmt.Fprintf(&b, "Product Category: %s\n", c.Product.Category)
	fmt.Fprintf(&b, "Product Name: %s\n", c.Product.Name)
	fmt.Fprintf(&b, "Client Location: %s\n", source)
	fmt.Fprintf(&b, "Top %d Recommended Suppliers:\n", len(c.Suppliers))
	for _, s := range c.Suppliers {
		f := s.Factors
		fmt.Fprintf(&b, "%d. %s (Score: %.1f)\n", s.Rank, s.Name, s.Score)
		fmt.Fprintf(&b, "   - Domain: %s\n", s.Domain)
		fmt.Fprintf(&b, "   - Location: %s\n", s.Location)
		fmt.Fprintf(&b, "   - Complaints: %d\n", s.ComplaintCount)
		fmt.Fprintf(&b, "   - Factors: Weather (%g), Tariffs (%g), Product Match (%g), Expiration (%g), Complaints (%g), Distance (%g)\n",
			f.Weather, f.Tariff, f.ProductMatch, f.Expiration, f.Complaint, f.Distance)
	}
	return b.String()
}

const explainPrompt = `You are an expert procurement assistant. Based on the following information about recommended suppliers for a product, explain why these suppliers are recommended, including:
1. Strengths of each supplier
2. Any potential risks or concerns
3. Overall assessment of the top recommendation
4. Distance considerations from the client location to the supplier
Reference specific factors like complaint history, tariffs, weather risks, product matching, and geographical distance.

%s
Provide your explanation in a structured format with clear reasoning for each recommendation.`

// LLMExplainer asks Claude for the explanation.
type LLMExplainer struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewLLMExplainer creates an Explainer backed by the Anthropic client.
func NewLLMExplainer(client anthropic.Client, model string, maxTokens int64) *LLMExplainer {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &LLMExplainer{client: client, model: model, maxTokens: maxTokens}
}

// Explain implements Explainer.
func (e *LLMExplainer) Explain(ctx context.Context, c Context) (string, error) {
	if len(c.Suppliers) == 0 {
		return Summary(c), nil
	}
	temp := 0.7
	text, err := anthropic.Complete(ctx, e.client, anthropic.MessageRequest{
		Model:       e.model,
		MaxTokens:   e.maxTokens,
		Temperature: &temp,
	}, fmt.Sprintf(explainPrompt, c.Render()), "explain")
	if err != nil {
		return "", eris.Wrap(err, "explain: llm")
	}
	return text, nil
}

// SummaryExplainer is the deterministic Explainer used without an LLM.
type SummaryExplainer struct{}

// Explain implements Explainer.
func (SummaryExplainer) Explain(_ context.Context, c Context) (string, error) {
	return Summary(c), nil
}

// Summary renders a short deterministic explanation naming each supplier's
// strongest and weakest factor.
func Summary(c Context) string {
	if len(c.Suppliers) == 0 {
		return fmt.Sprintf("No suppliers could be ranked for %s (%s).", c.Product.Name, c.Product.Category)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Top %d suppliers for %s (%s)", len(c.Suppliers), c.Product.Name, c.Product.Category)
	if c.Product.SourceLocation != "" {
		fmt.Fprintf(&b, " shipping to %s", c.Product.SourceLocation)
	}
	b.WriteString(":\n")
	for _, s := range c.Suppliers {
		best, worst := extremes(s.Factors)
		fmt.Fprintf(&b, "%d. %s scored %.1f (%s, %s). Strongest factor: %s (%+g). Weakest factor: %s (%+g). Complaints on record: %d.\n",
			s.Rank, s.Name, s.Score, s.Domain, s.Location, best.name, best.value, worst.name, worst.value, s.ComplaintCount)
	}
	return strings.TrimRight(b.String(), "\n")
}

type namedFactor struct {
	name  string
	value float64
}

func extremes(f model.FactorSet) (best, worst namedFactor) {
	ordered := []namedFactor{
		{"complaints", f.Complaint},
		{"weather", f.Weather},
		{"tariffs", f.Tariff},
		{"product match", f.ProductMatch},
		{"expiration", f.Expiration},
		{"distance", f.Distance},
	}
	best, worst = ordered[0], ordered[0]
	for _, nf := range ordered[1:] {
		if nf.value > best.value {
			best = nf
		}
		if nf.value < worst.value {
			worst = nf
		}
	}
	return best, worst
}
