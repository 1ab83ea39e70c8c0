package bdd

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"googlepay-merchant-server/internal/api"
	"googlepay-merchant-server/internal/config"
	"googlepay-merchant-server/internal/payment"
)

// PaymentWorld wires a stubbed payment platform behind the real HTTP API for
// one scenario: API handler -> submission service -> SOAP client -> stub.
type PaymentWorld struct {
	t *testing.T

	platform *httptest.Server
	server   *httptest.Server

	// What the platform stub answers with.
	statusLabel  string
	responseCode int
	responseDet  string

	httpStatus int
	httpJSON   map[string]string
}

func NewPaymentWorld(t *testing.T) *PaymentWorld {
	return &PaymentWorld{t: t}
}

func (w *PaymentWorld) Register(sc *godog.ScenarioContext) {
	sc.Before(w.startServers)
	sc.After(w.stopServers)

	sc.Step(`^the payment platform answers with status "([^"]+)"$`, w.platformAnswers)
	sc.Step(`^the payment platform fails with response code (\d+)$`, w.platformFails)
	sc.Step(`^a wallet payment is submitted for mode "([^"]+)"$`, w.submitPayment)
	sc.Step(`^a malformed payment request is submitted$`, w.submitMalformed)
	sc.Step(`^the response code is (\d+)$`, w.assertResponseCode)
	sc.Step(`^the transaction status is "([^"]+)"$`, w.assertTransactionStatus)
	sc.Step(`^the error message is "([^"]+)"$`, w.assertErrorMessage)
}

func (w *PaymentWorld) startServers(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
	w.resetScenarioState()

	w.platform = httptest.NewServer(http.HandlerFunc(w.servePlatform))

	cfg := config.Config{
		ServiceName: "googlepay-merchant-server-bdd",
		Merchants: map[string]config.MerchantProfile{
			config.ModeTest: {
				SiteID:         "12345678",
				Certificate:    "1111111111111111",
				PlatformURL:    w.platform.URL,
				CtxMode:        config.ModeTest,
				ConnectTimeout: time.Second,
				RequestTimeout: 5 * time.Second,
			},
		},
	}

	logger := log.New(io.Discard, "", 0)
	svc := payment.NewService(cfg, logger, nil, nil)

	mux := http.NewServeMux()
	api.RegisterHealthRoutes(mux)
	api.RegisterPaymentRoutes(mux, svc, logger)
	w.server = httptest.NewServer(mux)

	return ctx, nil
}

func (w *PaymentWorld) stopServers(ctx context.Context, sc *godog.Scenario, scErr error) (context.Context, error) {
	if w.server != nil {
		w.server.Close()
	}
	if w.platform != nil {
		w.platform.Close()
	}
	return ctx, nil
}

func (w *PaymentWorld) resetScenarioState() {
	w.statusLabel = ""
	w.responseCode = 0
	w.responseDet = ""
	w.httpStatus = 0
	w.httpJSON = nil
}

// servePlatform answers createPayment calls with a canned V5 SOAP response.
func (w *PaymentWorld) servePlatform(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "text/xml; charset=utf-8")
	fmt.Fprintf(rw, `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <ns2:createPaymentResponse xmlns:ns2="http://v5.ws.vads.lyra.com/">
      <result>
        <commonResponse>
          <responseCode>%d</responseCode>
          <responseCodeDetail>%s</responseCodeDetail>
          <transactionStatusLabel>%s</transactionStatusLabel>
        </commonResponse>
      </result>
    </ns2:createPaymentResponse>
  </soap:Body>
</soap:Envelope>`, w.responseCode, w.responseDet, w.statusLabel)
}
