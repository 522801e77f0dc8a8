package payment_test

import (
	"testing"

	"linenloft/internal/payment"
)

func TestSignIsDeterministicHex(t *testing.T) {
	a := payment.Sign("secret", "order_1", "pay_1")
	b := payment.Sign("secret", "order_1", "pay_1")
	if a != b {
		t.Fatal("same inputs must sign identically")
	}
	if len(a) != 64 {
		t.Fatalf("want 64 hex chars of SHA-256, got %d", len(a))
	}
	if payment.Sign("other", "order_1", "pay_1") == a {
		t.Fatal("different secrets must not collide")
	}
}

func TestVerifySignature(t *testing.T) {
	sig := payment.Sign("secret", "order_1", "pay_1")
	if !payment.VerifySignature("secret", "order_1", "pay_1", sig) {
		t.Fatal("valid signature rejected")
	}
	if payment.VerifySignature("secret", "order_2", "pay_1", sig) {
		t.Fatal("signature for another order accepted")
	}
	if payment.VerifySignature("secret", "order_1", "pay_1", "deadbeef") {
		t.Fatal("garbage signature accepted")
	}
	if payment.VerifySignature("secret", "order_1", "pay_1", "") {
		t.Fatal("empty signature accepted")
	}
}
