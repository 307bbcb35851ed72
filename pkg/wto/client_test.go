package wto

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestrictions(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantErr   string
		wantItems int
	}{
		{
			name:      "success",
			status:    http.StatusOK,
			body:      `{"items":[{"id":1,"duty_rate":4.5},{"id":2,"duty_rate":12}]}`,
			wantItems: 2,
		},
		{
			name:      "no_items",
			status:    http.StatusOK,
			body:      `{}`,
			wantItems: 0,
		},
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{"message":"Access denied"}`,
			wantErr: "unexpected status 401",
		},
		{
			name:    "malformed",
			status:  http.StatusOK,
			body:    `[`,
			wantErr: "unmarshal response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/qrs", r.URL.Path)
				assert.Equal(t, "C156", r.URL.Query().Get("reporter_member_code"))
				assert.Equal(t, "8526", r.URL.Query().Get("product_ids"))
				assert.Equal(t, "true", r.URL.Query().Get("in_force_only"))
				assert.Equal(t, "sub-key", r.Header.Get("Ocp-Apim-Subscription-Key"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			resp, err := NewClient("sub-key", WithBaseURL(srv.URL)).Restrictions(context.Background(), "C156", "8526")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, resp.Items, tt.wantItems)
		})
	}
}
