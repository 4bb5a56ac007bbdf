package checkout

import (
	"testing"

	pkgstripe "github.com/jconn5803/stripe-recurring-revenue/pkg/stripe"
)

func TestNewStripeClientRequiresHandle(t *testing.T) {
	if NewStripeClient(nil) != nil {
		t.Fatalf("expected nil wrapper for nil client")
	}
	if NewStripeClient(&pkgstripe.Client{}) != nil {
		t.Fatalf("expected nil wrapper for client without api handle")
	}
}
