package api

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// PaymentSubmitter forwards one parsed payment to the platform and returns
// the transaction status label.
type PaymentSubmitter interface {
	Submit(ctx context.Context, createPaymentData, walletPayload map[string]any, clientIP string) (string, error)
}

type paymentRequest struct {
	CreatePaymentData map[string]any `json:"createPaymentData"`
	WalletPayload     map[string]any `json:"walletPayload"`
}

// paymentResponse is the only body shape this API ever returns.
type paymentResponse struct {
	Status            string `json:"status"`
	ErrorMessage      string `json:"errorMessage"`
	TransactionStatus string `json:"transactionStatus"`
}

// RegisterPaymentRoutes mounts the wallet payment endpoint on POST /.
func RegisterPaymentRoutes(mux *http.ServeMux, submitter PaymentSubmitter, logger *log.Logger) {
	mux.Handle("/", otelhttp.NewHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleCreatePayment(submitter, logger, w, r)
	}), "create-payment"))
}

// RegisterHealthRoutes mounts the liveness endpoint.
func RegisterHealthRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	})
}

// handleCreatePayment parses the two request objects and maps every failure
// to one of the two client-visible errors. Failure detail never leaves the
// server; it only goes to the log.
func handleCreatePayment(submitter PaymentSubmitter, logger *log.Logger, w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse("Method Not Allowed"))
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("Bad Request"))
		return
	}

	status, err := submitter.Submit(r.Context(), req.CreatePaymentData, req.WalletPayload, clientIP(r))
	if err != nil {
		logger.Printf("payment submission failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("Internal Server Error"))
		return
	}

	writeJSON(w, http.StatusOK, paymentResponse{Status: "OK", TransactionStatus: status})
}

func errorResponse(message string) paymentResponse {
	return paymentResponse{Status: "ERROR", ErrorMessage: message}
}

func writeJSON(w http.ResponseWriter, code int, body paymentResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
