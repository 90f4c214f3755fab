package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "payment", r.PostForm.Get("mode"))
		assert.Equal(t, "ils", r.PostForm.Get("line_items[0][price_data][currency]"))
		assert.Equal(t, "Ticket for Rooftop Rave", r.PostForm.Get("line_items[0][price_data][product_data][name]"))
		assert.Equal(t, "12000", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
		assert.Equal(t, "2", r.PostForm.Get("line_items[0][quantity]"))
		assert.Equal(t, "evt1", r.PostForm.Get("metadata[event_id]"))
		assert.Equal(t, "https://example.com/ok?session_id={CHECKOUT_SESSION_ID}", r.PostForm.Get("success_url"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "cs_test_a1",
			"url": "https://checkout.stripe.com/pay/cs_test_a1",
			"payment_status": "unpaid",
			"amount_total": 24000,
			"currency": "ils",
			"metadata": {"event_id": "evt1"}
		}`))
	}))
	defer srv.Close()

	client := New("sk_test_123").WithBaseURL(srv.URL)

	session, err := client.CreateSession(context.Background(), &SessionRequest{
		ProductName: "Ticket for Rooftop Rave",
		UnitAmount:  12000,
		Quantity:    2,
		Currency:    "ils",
		Metadata:    map[string]string{"event_id": "evt1"},
		SuccessURL:  "https://example.com/ok?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   "https://example.com/cancel",
	})
	require.NoError(t, err)

	assert.Equal(t, "cs_test_a1", session.ID)
	assert.Equal(t, "https://checkout.stripe.com/pay/cs_test_a1", session.URL)
	assert.Equal(t, "unpaid", session.PaymentStatus)
	assert.Equal(t, int64(24000), session.AmountTotal)
}

func TestRetrieveSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/checkout/sessions/cs_test_a1", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "cs_test_a1",
			"payment_status": "paid",
			"amount_total": 24000,
			"currency": "ils",
			"metadata": {"quantity": "2"}
		}`))
	}))
	defer srv.Close()

	client := New("sk_test_123").WithBaseURL(srv.URL)

	session, err := client.RetrieveSession(context.Background(), "cs_test_a1")
	require.NoError(t, err)
	assert.Equal(t, "paid", session.PaymentStatus)
	assert.Equal(t, "2", session.Metadata["quantity"])
}

func TestAPIErrorSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error": {"type": "card_error", "message": "Your card was declined."}}`))
	}))
	defer srv.Close()

	client := New("sk_test_123").WithBaseURL(srv.URL)

	_, err := client.RetrieveSession(context.Background(), "cs_test_a1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Your card was declined.")
}
