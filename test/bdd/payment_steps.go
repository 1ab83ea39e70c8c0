package bdd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

func (w *PaymentWorld) platformAnswers(status string) error {
	w.responseCode = 0
	w.responseDet = "Action successfully completed"
	w.statusLabel = status
	return nil
}

func (w *PaymentWorld) platformFails(code int) error {
	w.responseCode = code
	w.responseDet = "INVALID_CONTRACT"
	w.statusLabel = ""
	return nil
}

func (w *PaymentWorld) submitPayment(mode string) error {
	body := fmt.Sprintf(`{
		"createPaymentData": {
			"mode": %q,
			"amount": "1099",
			"currency": "978",
			"email": "buyer@example.com",
			"cardSecurityCode": "123",
			"appVersion": {
				"applicationId": "com.example.shop",
				"versionCode": "17",
				"versionName": "1.7.0"
			},
			"deviceInformation": {"model": "Pixel 8"}
		},
		"walletPayload": {"token": "abc"}
	}`, mode)
	return w.post(body)
}

func (w *PaymentWorld) submitMalformed() error {
	return w.post(`{"createPaymentData": `)
}

func (w *PaymentWorld) post(body string) error {
	resp, err := http.Post(w.server.URL+"/", "application/json", strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("post payment: %w", err)
	}
	defer resp.Body.Close()

	w.httpStatus = resp.StatusCode
	w.httpJSON = map[string]string{}
	if err := json.NewDecoder(resp.Body).Decode(&w.httpJSON); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (w *PaymentWorld) assertResponseCode(code int) error {
	if w.httpStatus != code {
		return fmt.Errorf("expected HTTP %d, got %d (body: %v)", code, w.httpStatus, w.httpJSON)
	}
	return nil
}

func (w *PaymentWorld) assertTransactionStatus(status string) error {
	if got := w.httpJSON["transactionStatus"]; got != status {
		return fmt.Errorf("expected transaction status %q, got %q", status, got)
	}
	return nil
}

func (w *PaymentWorld) assertErrorMessage(message string) error {
	if got := w.httpJSON["errorMessage"]; got != message {
		return fmt.Errorf("expected error message %q, got %q", message, got)
	}
	if got := w.httpJSON["transactionStatus"]; got != "" {
		return fmt.Errorf("expected empty transaction status on error, got %q", got)
	}
	return nil
}
