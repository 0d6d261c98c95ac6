package middleware

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Mirrors the shape of the cart add request without importing transport.
type cartLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	Quantity  int    `json:"quantity" validate:"required,gte=1,lte=100"`
}

type addressTypeRequest struct {
	Type string `json:"type" validate:"required,oneof=shipping billing"`
}

func decodeInto(t *testing.T, payload interface{}, target interface{}) error {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	req := httptest.NewRequest("POST", "/api/cart/items", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return DecodeAndValidate(req, target)
}

func TestProperty_QuantityBoundsAreEnforced(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("quantities outside 1..100 are rejected", prop.ForAll(
		func(quantity int) bool {
			var parsed cartLineRequest
			err := decodeInto(t, map[string]interface{}{
				"product_id": uuid.New().String(),
				"quantity":   quantity,
			}, &parsed)

			if quantity >= 1 && quantity <= 100 {
				return err == nil
			}
			return err != nil
		},
		gen.IntRange(-10, 150),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_MalformedProductIDsAreRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("only UUID product IDs pass", prop.ForAll(
		func(junk string) bool {
			var parsed cartLineRequest
			err := decodeInto(t, map[string]interface{}{
				"product_id": junk,
				"quantity":   1,
			}, &parsed)

			if _, parseErr := uuid.Parse(junk); parseErr == nil && junk == uuid.MustParse(junk).String() {
				return err == nil
			}
			return err != nil
		},
		gen.OneConstOf("", "not-a-uuid", "1234", "../../etc/passwd", uuid.New().String()),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestValidation_MissingFieldsAreReportedPerField(t *testing.T) {
	var parsed cartLineRequest
	err := decodeInto(t, map[string]interface{}{}, &parsed)
	if err == nil {
		t.Fatal("expected validation failure for an empty body")
	}

	formatted := FormatValidationErrors(err)
	if len(formatted) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(formatted))
	}
	for _, fe := range formatted {
		if fe.Field == "" || fe.Message == "" {
			t.Errorf("field error must carry both field and message: %+v", fe)
		}
	}
}

func TestValidation_OneofMessageNamesTheChoices(t *testing.T) {
	var parsed addressTypeRequest
	err := decodeInto(t, map[string]interface{}{"type": "postal"}, &parsed)
	if err == nil {
		t.Fatal("expected validation failure for unknown address type")
	}

	formatted := FormatValidationErrors(err)
	if len(formatted) != 1 {
		t.Fatalf("expected 1 field error, got %d", len(formatted))
	}
	if formatted[0].Message != "Must be one of: shipping billing" {
		t.Errorf("unexpected message: %q", formatted[0].Message)
	}
}

func TestValidation_InvalidJSONIsAnError(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/cart/items", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")

	var parsed cartLineRequest
	if err := DecodeAndValidate(req, &parsed); err == nil {
		t.Error("expected a decode error for malformed JSON")
	}
}
