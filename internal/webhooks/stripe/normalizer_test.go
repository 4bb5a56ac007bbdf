package stripewebhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	pkgerrors "github.com/jconn5803/stripe-recurring-revenue/pkg/errors"
	"github.com/stripe/stripe-go/v84"
)

func buildSignedPayload(t *testing.T, secret string) ([]byte, string) {
	t.Helper()
	event := &stripe.Event{
		ID:         "evt_signed",
		Type:       stripe.EventTypeCustomerSubscriptionDeleted,
		Object:     "event",
		APIVersion: stripe.APIVersion,
		Data: &stripe.EventData{
			Raw: json.RawMessage(`{"id":"sub_signed","status":"canceled"}`),
		},
	}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	ts := time.Now().Unix()
	signedPayload := fmt.Sprintf("%d.%s", ts, payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signedPayload))
	header := fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
	return payload, header
}

func TestNormalizerVerifiedMode(t *testing.T) {
	normalizer := NewNormalizer("whsec_test")
	if !normalizer.Verifying() {
		t.Fatalf("expected verification enabled")
	}

	payload, header := buildSignedPayload(t, "whsec_test")
	event, err := normalizer.Normalize(payload, header)
	if err != nil {
		t.Fatalf("normalize signed payload: %v", err)
	}
	if event.Type != stripe.EventTypeCustomerSubscriptionDeleted {
		t.Fatalf("unexpected event type %q", event.Type)
	}
	if got := event.GetObjectValue("id"); got != "sub_signed" {
		t.Fatalf("expected object id from raw payload, got %q", got)
	}
}

func TestNormalizerRejectsBadSignature(t *testing.T) {
	normalizer := NewNormalizer("whsec_test")
	payload, _ := buildSignedPayload(t, "whsec_other")

	_, err := normalizer.Normalize(payload, "t=1,v1=deadbeef")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = normalizer.Normalize(payload, "")
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing header, got %v", err)
	}
}

func TestNormalizerPermissiveMode(t *testing.T) {
	normalizer := NewNormalizer("")
	if normalizer.Verifying() {
		t.Fatalf("expected verification disabled without secret")
	}

	payload := []byte(`{"id":"evt_plain","type":"customer.subscription.deleted","data":{"object":{"id":"sub_plain"}}}`)
	event, err := normalizer.Normalize(payload, "")
	if err != nil {
		t.Fatalf("normalize unsigned payload: %v", err)
	}
	if event.ID != "evt_plain" {
		t.Fatalf("unexpected event id %q", event.ID)
	}
	if got := event.GetObjectValue("id"); got != "sub_plain" {
		t.Fatalf("expected object id, got %q", got)
	}
}

func TestNormalizerRejectsMalformedPayload(t *testing.T) {
	normalizer := NewNormalizer("")

	for _, payload := range [][]byte{nil, []byte("not-json"), []byte(`{"id":"evt_x"}`)} {
		_, err := normalizer.Normalize(payload, "")
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("payload %q: expected validation error, got %v", payload, err)
		}
	}
}
