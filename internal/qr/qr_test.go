package qr

import (
	"testing"

	"github.com/youkaichao/WtfTicket/internal/models"
)

func TestGenerateTicketQR(t *testing.T) {
	gen := NewGenerator("test-secret-key")

	ticket := &models.Ticket{
		UniqueID:   "7c9e6679-7425-40de-963d-6a0d5e0f12aa",
		StudentID:  "2020010001",
		ActivityID: 7,
	}

	png, err := gen.GenerateTicketQR(ticket)
	if err != nil {
		t.Fatalf("GenerateTicketQR failed: %v", err)
	}
	if len(png) == 0 {
		t.Fatal("Generated QR code is empty")
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	gen := NewGenerator("test-secret-key")

	ticket := &models.Ticket{
		UniqueID:   "7c9e6679-7425-40de-963d-6a0d5e0f12aa",
		StudentID:  "2020010001",
		ActivityID: 7,
	}

	encrypted, err := encryptAES([]byte(`{"unique_id":"`+ticket.UniqueID+`","student_id":"2020010001","activity_id":7}`), gen.secret)
	if err != nil {
		t.Fatalf("encryptAES failed: %v", err)
	}

	uniqueID, err := gen.DecodePayload(encrypted)
	if err != nil {
		t.Fatalf("DecodePayload failed: %v", err)
	}
	if uniqueID != ticket.UniqueID {
		t.Errorf("Expected unique id %s, got %s", ticket.UniqueID, uniqueID)
	}
}

func TestDecodePayloadRejectsWrongKey(t *testing.T) {
	gen := NewGenerator("test-secret-key")
	other := NewGenerator("another-secret")

	encrypted, err := encryptAES([]byte(`{"unique_id":"abc"}`), gen.secret)
	if err != nil {
		t.Fatalf("encryptAES failed: %v", err)
	}

	if _, err := other.DecodePayload(encrypted); err == nil {
		t.Error("Expected decoding with a different key to fail")
	}
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	gen := NewGenerator("test-secret-key")

	if _, err := gen.DecodePayload("not-base64!!!"); err == nil {
		t.Error("Expected non-base64 input to fail")
	}
	if _, err := gen.DecodePayload("c2hvcnQ"); err == nil {
		t.Error("Expected a too-short payload to fail")
	}
}
