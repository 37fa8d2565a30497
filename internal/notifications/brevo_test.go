package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"taxsavings-backend/internal/leads"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLead() leads.Lead {
	return leads.Lead{
		ID:               "65f0c0ffee",
		Name:             "Dana Reyes",
		Email:            "dana@example.com",
		Phone:            "5550102030",
		LeadSource:       leads.SourceCostSegCalculator,
		EstimateKind:     leads.KindCostSegregation,
		EstimatedSavings: 92500,
		Notes:            "Cost segregation estimate\nProperty cost: $1,000,000.00\nEstimated first-year tax savings: $92,500.00",
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *BrevoClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewBrevoClient(BrevoConfig{
		APIKey:      "key-123",
		SenderEmail: "noreply@example.com",
		SenderName:  "Tax Savings",
		NotifyEmail: "sales@example.com",
		Sandbox:     true,
	})
	require.NotNil(t, c)
	c.endpoint = srv.URL
	return c
}

func TestNewBrevoClientDisabledWithoutKey(t *testing.T) {
	assert.Nil(t, NewBrevoClient(BrevoConfig{SenderEmail: "noreply@example.com"}))
	assert.Nil(t, NewBrevoClient(BrevoConfig{APIKey: "key"}))
}

func TestSendLeadNotification(t *testing.T) {
	var got brevoSendRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-123", r.Header.Get("api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"messageId":"<abc@brevo>"}`))
	})

	id, err := c.SendLeadNotification(context.Background(), testLead())
	require.NoError(t, err)
	assert.Equal(t, "<abc@brevo>", id)

	require.Len(t, got.To, 1)
	assert.Equal(t, "sales@example.com", got.To[0].Email)
	assert.Equal(t, "drop", got.Headers["X-Sib-Sandbox"])
	assert.Equal(t, "New cost segregation lead - Dana Reyes", got.Subject)
	assert.Contains(t, got.HtmlContent, "$92,500.00")
	assert.Contains(t, got.HtmlContent, "<li>Property cost: $1,000,000.00</li>")
}

func TestSendLeadConfirmationGoesToSubmitter(t *testing.T) {
	var got brevoSendRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"messageId":"m-1"}`))
	})

	_, err := c.SendLeadConfirmation(context.Background(), testLead())
	require.NoError(t, err)
	require.Len(t, got.To, 1)
	assert.Equal(t, "dana@example.com", got.To[0].Email)
	assert.Contains(t, got.HtmlContent, "Hello Dana Reyes")
	assert.NotContains(t, got.HtmlContent, "<li>Cost segregation estimate</li>")
}

func TestSendSurfacesAPIErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"unauthorized"}`))
	})

	_, err := c.SendLeadNotification(context.Background(), testLead())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=401")

	lead := testLead()
	lead.Email = ""
	_, err = c.SendLeadConfirmation(context.Background(), lead)
	assert.EqualError(t, err, "missing recipient email")
}
