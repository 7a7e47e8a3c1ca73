package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type lineRequest struct {
	Quantity int `json:"quantity" validate:"min=1"`
}

type orderRequest struct {
	Email string        `json:"email" validate:"required,email"`
	Items []lineRequest `json:"items" validate:"required,dive"`
}

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func details(t *testing.T, err error) map[string]string {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	d, _ := typed.Details().(map[string]string)
	return d
}

func TestDecodeJSONBodyReportsFieldPaths(t *testing.T) {
	var dest orderRequest
	err := DecodeJSONBody(post(`{"email":"nope","items":[{"quantity":0}]}`), &dest)

	d := details(t, err)
	if d["email"] != "must be a valid email" {
		t.Fatalf("unexpected email detail: %v", d)
	}
	if d["items[0].quantity"] != "must be at least 1" {
		t.Fatalf("unexpected item detail: %v", d)
	}
}

func TestDecodeJSONBodyRejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"empty":    ``,
		"unknown":  `{"email":"a@b.co","items":[],"extra":1}`,
		"trailing": `{"email":"a@b.co","items":[]} {}`,
		"type":     `{"email":5}`,
	}
	for name, body := range cases {
		var dest orderRequest
		if err := DecodeJSONBody(post(body), &dest); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestDecodeJSONBodyRejectsOversizedBodies(t *testing.T) {
	body := `{"email":"` + strings.Repeat("a", MaxBodyBytes) + `@b.co","items":[]}`
	var dest orderRequest
	if err := DecodeJSONBody(post(body), &dest); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQueryIntBounds(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?page=3&limit=500&bad=x", nil)
	if v, err := ParseQueryInt(r, "page", 1, 1, 10); err != nil || v != 3 {
		t.Fatalf("expected 3, got %d %v", v, err)
	}
	if v, err := ParseQueryInt(r, "missing", 7, 1, 10); err != nil || v != 7 {
		t.Fatalf("expected fallback 7, got %d %v", v, err)
	}
	if _, err := ParseQueryInt(r, "limit", 20, 1, 100); err == nil {
		t.Fatal("expected out of range error")
	}
	if _, err := ParseQueryInt(r, "bad", 1, 1, 10); err == nil {
		t.Fatal("expected numeric error")
	}
}

func TestSanitizeStringCutsOnRunes(t *testing.T) {
	if got := SanitizeString("  chai masala  ", 0); got != "chai masala" {
		t.Fatalf("unexpected %q", got)
	}
	if got := SanitizeString("ñandú grande", 5); got != "ñandú" {
		t.Fatalf("expected rune-safe cut, got %q", got)
	}
}
