package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type stubSubmitter struct {
	status string
	err    error

	gotPaymentData map[string]any
	gotPayload     map[string]any
	gotClientIP    string
}

func (s *stubSubmitter) Submit(ctx context.Context, createPaymentData, walletPayload map[string]any, clientIP string) (string, error) {
	s.gotPaymentData = createPaymentData
	s.gotPayload = walletPayload
	s.gotClientIP = clientIP
	return s.status, s.err
}

func newTestMux(sub *stubSubmitter) *http.ServeMux {
	mux := http.NewServeMux()
	RegisterHealthRoutes(mux)
	RegisterPaymentRoutes(mux, sub, log.New(io.Discard, "", 0))
	return mux
}

func postPayment(mux *http.ServeMux, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.RemoteAddr = "203.0.113.7:51234"
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	return body
}

func TestCreatePaymentOK(t *testing.T) {
	sub := &stubSubmitter{status: "AUTHORISED"}
	mux := newTestMux(sub)

	w := postPayment(mux, `{
		"createPaymentData": {"mode": "TEST", "amount": "1099", "currency": "978"},
		"walletPayload": {"token": "abc"}
	}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != "OK" || body["errorMessage"] != "" || body["transactionStatus"] != "AUTHORISED" {
		t.Fatalf("unexpected body: %v", body)
	}

	if sub.gotPaymentData["mode"] != "TEST" {
		t.Fatalf("createPaymentData not forwarded: %v", sub.gotPaymentData)
	}
	if sub.gotPayload["token"] != "abc" {
		t.Fatalf("walletPayload not forwarded: %v", sub.gotPayload)
	}
	if sub.gotClientIP != "203.0.113.7" {
		t.Fatalf("unexpected client ip: %q", sub.gotClientIP)
	}
}

func TestCreatePaymentMalformedJSON(t *testing.T) {
	mux := newTestMux(&stubSubmitter{status: "AUTHORISED"})

	w := postPayment(mux, `{"createPaymentData": `)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != "ERROR" || body["errorMessage"] != "Bad Request" || body["transactionStatus"] != "" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestCreatePaymentSubmissionFailure(t *testing.T) {
	mux := newTestMux(&stubSubmitter{err: errors.New("unknown payment mode \"SANDBOX\"")})

	w := postPayment(mux, `{"createPaymentData": {"mode": "SANDBOX"}, "walletPayload": {}}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != "ERROR" || body["errorMessage"] != "Internal Server Error" {
		t.Fatalf("unexpected body: %v", body)
	}
	// Failure detail must not leak to the client.
	if strings.Contains(w.Body.String(), "SANDBOX") {
		t.Fatalf("error detail leaked: %s", w.Body.String())
	}
}

func TestCreatePaymentResponseHasExactlyThreeKeys(t *testing.T) {
	mux := newTestMux(&stubSubmitter{status: "AUTHORISED"})

	for _, body := range []string{
		`{"createPaymentData": {}, "walletPayload": {}}`,
		`not json`,
	} {
		w := postPayment(mux, body)
		var decoded map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("response is not valid JSON: %v", err)
		}
		if len(decoded) != 3 {
			t.Fatalf("expected exactly 3 keys, got %v", decoded)
		}
		for _, key := range []string{"status", "errorMessage", "transactionStatus"} {
			if _, ok := decoded[key]; !ok {
				t.Fatalf("missing key %q in %v", key, decoded)
			}
		}
	}
}

func TestCreatePaymentMethodNotAllowed(t *testing.T) {
	mux := newTestMux(&stubSubmitter{})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestCreatePaymentUnknownPath(t *testing.T) {
	mux := newTestMux(&stubSubmitter{})

	r := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestClientIPForwardedFor(t *testing.T) {
	sub := &stubSubmitter{status: "AUTHORISED"}
	mux := newTestMux(sub)

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"createPaymentData": {}, "walletPayload": {}}`))
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set("X-Forwarded-For", "198.51.100.9, 10.0.0.1")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)

	if sub.gotClientIP != "198.51.100.9" {
		t.Fatalf("unexpected client ip: %q", sub.gotClientIP)
	}
}

func TestHealthz(t *testing.T) {
	mux := newTestMux(&stubSubmitter{})

	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
