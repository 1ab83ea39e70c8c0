package platform

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"googlepay-merchant-server/internal/config"
)

const (
	v5Namespace     = "http://v5.ws.vads.lyra.com/"
	headerNamespace = "http://v5.ws.vads.lyra.com/Header/"
	soapNamespace   = "http://schemas.xmlsoap.org/soap/envelope/"
	v5Path          = "/vads-ws/v5"

	paymentSource = "EC"
	cardScheme    = "GOOGLEPAY"
	comment       = "Mobile demo GooglePay"
)

var schemePrefix = regexp.MustCompile(`^(http[s]?://www\.|http[s]?://|www\.)`)

// Client calls the payment platform's V5 SOAP web service. It is derived from
// a merchant profile per request and holds no state beyond the HTTP client.
type Client struct {
	endpoint    string
	shopID      string
	certificate string
	mode        string
	httpClient  *http.Client
}

// NewClient builds a client for the given merchant profile. The endpoint host
// is derived from the platform URL; plain http URLs are kept verbatim so a
// local platform can be targeted during development.
func NewClient(profile config.MerchantProfile) *Client {
	endpoint := endpointURL(profile.PlatformURL)
	return &Client{
		endpoint:    endpoint,
		shopID:      profile.SiteID,
		certificate: profile.Certificate,
		mode:        profile.CtxMode,
		httpClient: &http.Client{
			Timeout: profile.RequestTimeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: profile.ConnectTimeout}).DialContext,
				TLSHandshakeTimeout: profile.ConnectTimeout,
			},
		},
	}
}

// CreatePayment performs the blocking createPayment call and returns the
// platform's common response. The caller decides what a non-zero response
// code means.
func (c *Client) CreatePayment(ctx context.Context, req *PaymentRequest) (*CommonResponse, error) {
	now := time.Now().UTC()
	requestID := uuid.NewString()
	timestamp := now.Format(time.RFC3339)

	envelope := requestEnvelope{
		SoapNS: soapNamespace,
		V5NS:   v5Namespace,
		HeadNS: headerNamespace,
		Header: requestHeader{
			ShopID:    c.shopID,
			RequestID: requestID,
			Timestamp: timestamp,
			Mode:      c.mode,
			AuthToken: c.authToken(requestID, timestamp),
		},
		Body: requestBody{
			CreatePayment: createPayment{
				CommonRequest: commonRequest{
					PaymentSource:  paymentSource,
					SubmissionDate: timestamp,
					Comment:        comment,
				},
				PaymentRequest: paymentRequest{
					Amount:              req.Amount,
					Currency:            req.Currency,
					ExpectedCaptureDate: timestamp,
					PaymentOptionCode:   req.PaymentOptionCode,
				},
				OrderRequest: orderRequest{OrderID: req.OrderID},
				CardRequest: cardRequest{
					Scheme:           cardScheme,
					CardSecurityCode: req.CardSecurityCode,
					WalletPayload:    req.WalletPayload,
				},
				CustomerRequest: buildCustomerRequest(req),
				TechRequest: &techRequest{
					BrowserUserAgent: req.DeviceInformation,
					IntegrationType:  req.ProductInformation,
				},
			},
		},
	}

	payload, err := xml.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("marshal createPayment envelope: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(append([]byte(xml.Header), payload...)))
	if err != nil {
		return nil, fmt.Errorf("build platform request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "text/xml; charset=utf-8")
	httpReq.Header.Set("SOAPAction", "createPayment")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call payment platform: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read platform response: %w", err)
	}

	var resp responseEnvelope
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode platform response (HTTP %d): %w", httpResp.StatusCode, err)
	}
	if resp.Body.Fault != nil {
		return nil, fmt.Errorf("platform SOAP fault %s: %s", resp.Body.Fault.Code, resp.Body.Fault.Message)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("platform returned HTTP %d", httpResp.StatusCode)
	}

	result := resp.Body.CreatePaymentResponse.Result.CommonResponse
	return &result, nil
}

// authToken signs requestId+timestamp with the shop certificate, the V5
// header authentication scheme.
func (c *Client) authToken(requestID, timestamp string) string {
	mac := hmac.New(sha256.New, []byte(c.certificate))
	mac.Write([]byte(requestID + timestamp))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func buildCustomerRequest(req *PaymentRequest) *customerRequest {
	customer := &customerRequest{}
	if req.Email != "" {
		customer.BillingDetails = &billingDetails{Email: req.Email}
	}
	if req.ClientIP != "" {
		customer.ExtraDetails = &extraDetails{IPAddress: req.ClientIP}
	}
	return customer
}

func endpointURL(platformURL string) string {
	if strings.HasPrefix(platformURL, "http://") {
		return strings.TrimSuffix(platformURL, "/") + v5Path
	}
	return "https://" + endpointHost(platformURL) + v5Path
}

// endpointHost strips the scheme and a leading www. from the configured
// platform URL, mirroring what the platform expects as endpoint host.
func endpointHost(platformURL string) string {
	return strings.TrimSuffix(schemePrefix.ReplaceAllString(platformURL, ""), "/")
}
