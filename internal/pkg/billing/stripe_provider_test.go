package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testWebhookSecret = "whsec_test_secret"

func signedPayload(t *testing.T, payload []byte, secret string) *webhook.SignedPayload {
	t.Helper()
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})
}

func TestStripeProviderParseWebhook(t *testing.T) {
	p := NewStripeProvider("sk_test_123", testWebhookSecret)
	payload := []byte(`{"id":"evt_123","object":"event","type":"customer.subscription.updated","api_version":"2020-08-27","data":{"object":{"id":"sub_123","object":"subscription","customer":"cus_123"}}}`)

	signed := signedPayload(t, payload, testWebhookSecret)
	event, err := p.ParseWebhook(signed.Payload, signed.Header)
	require.NoError(t, err)
	assert.Equal(t, "evt_123", event.ID)
	assert.Equal(t, EventSubscriptionUpdated, event.Type)

	var sub subscriptionPayload
	require.NoError(t, json.Unmarshal(event.Raw, &sub))
	assert.Equal(t, "sub_123", sub.ID)
	assert.Equal(t, "cus_123", sub.Customer.ID)
}

func TestStripeProviderRejectsBadSignature(t *testing.T) {
	p := NewStripeProvider("sk_test_123", testWebhookSecret)
	payload := []byte(`{"id":"evt_123","object":"event","type":"invoice.paid","data":{"object":{}}}`)

	signed := signedPayload(t, payload, "whsec_other")
	_, err := p.ParseWebhook(signed.Payload, signed.Header)
	assert.Error(t, err)

	_, err = NewStripeProvider("sk_test_123", "").ParseWebhook(payload, "t=1,v1=abc")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestWrapStripeError(t *testing.T) {
	missing := &stripe.Error{Code: stripe.ErrorCodeResourceMissing, Msg: "No such customer"}
	err := wrapStripeError("get customer", missing)
	assert.ErrorIs(t, err, ErrResourceMissing)
	assert.False(t, errors.Is(err, ErrProvider))

	other := wrapStripeError("create customer", fmt.Errorf("connection reset"))
	assert.ErrorIs(t, other, ErrProvider)
}

func TestSubscriptionFromStripe(t *testing.T) {
	s := &stripe.Subscription{
		ID:                "sub_1",
		Status:            stripe.SubscriptionStatusActive,
		CancelAtPeriodEnd: true,
		Created:           1767225600,
		Customer:          &stripe.Customer{ID: "cus_1"},
		Schedule:          &stripe.SubscriptionSchedule{ID: "sub_sched_1"},
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{{
				Price:              &stripe.Price{ID: "price_monthly"},
				CurrentPeriodStart: 1767225600,
				CurrentPeriodEnd:   1769904000,
			}},
		},
	}

	sub := subscriptionFromStripe(s)
	assert.Equal(t, "cus_1", sub.CustomerID)
	assert.Equal(t, "active", sub.Status)
	assert.Equal(t, "price_monthly", sub.PriceID)
	assert.Equal(t, "sub_sched_1", sub.ScheduleID)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.Equal(t, int64(1769904000), sub.CurrentPeriodEnd.Unix())
	assert.True(t, sub.CancelAtPeriodEnd)
}
