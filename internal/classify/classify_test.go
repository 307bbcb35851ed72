package classify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/supplier-cli/pkg/anthropic"
)

type mockAnthropic struct{ mock.Mock }

func (m *mockAnthropic) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func textResponse(s string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{Content: []anthropic.ContentBlock{{Type: "text", Text: s}}}
}

type resolverFunc func(ctx context.Context, name, category string) (string, error)

func (f resolverFunc) Resolve(ctx context.Context, name, category string) (string, error) {
	return f(ctx, name, category)
}

func TestTableLookup(t *testing.T) {
	table := DefaultTable()
	tests := []struct {
		name     string
		product  string
		category string
		want     string
	}{
		{"exact_category", "Widget", "Medical", "9018"},
		{"partial_category", "Widget", "Consumer Electronics", "8517"},
		{"category_contained_in_keyword", "Widget", "Comp", "8471"},
		{"product_name", "Wooden chair", "Household", "4421"},
		{"first_match_wins", "Toy sports car", "Household", "9503"},
		{"hint_health", "Health monitor", "Wearables", "9018"},
		{"hint_device", "Smart device", "Wearables", "8517"},
		{"hint_navigation_beats_device", "Navigation device", "Wearables", "8526"},
		{"default", "Thing", "Other", DefaultCode},
		{"empty_category_default", "Thing", "", DefaultCode},
		{"empty_category_product_name", "Wooden chair", "", "4421"},
		{"blank_product_and_category", "", "", DefaultCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Lookup(tt.product, tt.category))
		})
	}
}

func TestTableLookup_EmptyStringsNeverMatch(t *testing.T) {
	toys := Table{{Keyword: "Toys", Code: "9503"}}
	assert.Equal(t, DefaultCode, toys.Lookup("Thing", ""))
	assert.Equal(t, "9503", toys.Lookup("Toys bundle", ""))

	blank := Table{{Keyword: "", Code: "1111"}, {Keyword: "Toys", Code: "9503"}}
	assert.Equal(t, DefaultCode, blank.Lookup("Thing", ""))
	assert.Equal(t, "9503", blank.Lookup("Thing", "Toys"))
}

func TestExtractCode(t *testing.T) {
	assert.Equal(t, "8526", ExtractCode("The HS code is 8526."))
	assert.Equal(t, "9018", ExtractCode("901890"))
	assert.Empty(t, ExtractCode("eighty-five"))
}

func TestLoadTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "table.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
entries:
  - keyword: Drone
    code: "8806"
  - keyword: GPS
    code: "8526"
`), 0o644))

	table, err := LoadTable(path)
	require.NoError(t, err)
	require.Len(t, table, 2)
	assert.Equal(t, "8806", table.Lookup("Survey drone", "Aerial"))
}

func TestLoadTable_Errors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"missing", filepath.Join(dir, "nope.yaml"), "read table"},
		{"bad_yaml", write("bad.yaml", "entries: [unclosed"), "parse table"},
		{"empty", write("empty.yaml", "entries: []"), "no entries"},
		{"bad_code", write("code.yaml", "entries:\n  - keyword: X\n    code: \"85\"\n"), "invalid code"},
		{"no_keyword", write("kw.yaml", "entries:\n  - code: \"8526\"\n"), "no keyword"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTable(tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLLMResolver(t *testing.T) {
	mc := &mockAnthropic{}
	mc.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == "claude-haiku-4-5-20251001" && req.MaxTokens == 20
	})).Return(textResponse("HS 8526"), nil)

	code, err := NewLLMResolver(mc, "claude-haiku-4-5-20251001").Resolve(context.Background(), "GPS tracker", "GPS")
	require.NoError(t, err)
	assert.Equal(t, "8526", code)
}

func TestLLMResolver_NoCode(t *testing.T) {
	mc := &mockAnthropic{}
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse("I am not sure."), nil)

	_, err := NewLLMResolver(mc, "m").Resolve(context.Background(), "x", "y")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no 4-digit code")
}

func TestClassifier(t *testing.T) {
	t.Run("collaborator", func(t *testing.T) {
		c := NewClassifier(resolverFunc(func(context.Context, string, string) (string, error) {
			return "9018", nil
		}), nil, time.Second, nil)
		assert.Equal(t, Result{Code: "9018", Source: SourceCollaborator}, c.Classify(context.Background(), "Stent", "Medical"))
	})

	t.Run("collaborator_error", func(t *testing.T) {
		c := NewClassifier(resolverFunc(func(context.Context, string, string) (string, error) {
			return "", errors.New("rate limited")
		}), nil, time.Second, nil)
		assert.Equal(t, Result{Code: "9018", Source: SourceFallback}, c.Classify(context.Background(), "Stent", "Medical"))
	})

	t.Run("collaborator_bad_code", func(t *testing.T) {
		c := NewClassifier(resolverFunc(func(context.Context, string, string) (string, error) {
			return "85", nil
		}), nil, time.Second, nil)
		assert.Equal(t, SourceFallback, c.Classify(context.Background(), "Tracker", "GPS").Source)
	})

	t.Run("timeout", func(t *testing.T) {
		c := NewClassifier(resolverFunc(func(ctx context.Context, _, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}), nil, 10*time.Millisecond, nil)
		res := c.Classify(context.Background(), "Tracker", "GPS")
		assert.Equal(t, Result{Code: "8526", Source: SourceFallback}, res)
	})

	t.Run("no_resolver", func(t *testing.T) {
		c := NewClassifier(nil, Table{{"Drone", "8806"}}, 0, nil)
		assert.Equal(t, "8806", c.Classify(context.Background(), "Drone", "Aerial").Code)
	})
}
