package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"googlepay-merchant-server/internal/config"
	"googlepay-merchant-server/internal/events"
	"googlepay-merchant-server/internal/platform"
)

// orderIDPrefix marks order ids generated on behalf of the caller. A real
// merchant must supply its own unique order ids.
const orderIDPrefix = "GooglePay Demo - "

// PlatformGateway is the outbound payment-authorization call. *platform.Client
// implements it; tests substitute a fake.
type PlatformGateway interface {
	CreatePayment(ctx context.Context, req *platform.PaymentRequest) (*platform.CommonResponse, error)
}

// GatewayFactory derives a gateway from the merchant profile selected for a
// request.
type GatewayFactory func(config.MerchantProfile) PlatformGateway

// Service submits wallet payments to the payment platform.
type Service struct {
	cfg        config.Config
	logger     *log.Logger
	producer   *events.Producer
	newGateway GatewayFactory
}

// NewService builds the submission service. A nil factory uses the real SOAP
// client.
func NewService(cfg config.Config, logger *log.Logger, producer *events.Producer, factory GatewayFactory) *Service {
	if factory == nil {
		factory = func(profile config.MerchantProfile) PlatformGateway {
			return platform.NewClient(profile)
		}
	}
	return &Service{cfg: cfg, logger: logger, producer: producer, newGateway: factory}
}

// Submit forwards one wallet payment to the platform and returns the
// transaction status label. Any failure (mode lookup, field parsing,
// transport, non-zero platform response code) is returned as an error; the
// HTTP layer collapses them all into a generic server error.
func (s *Service) Submit(ctx context.Context, createPaymentData, walletPayload map[string]any, clientIP string) (string, error) {
	if createPaymentData == nil {
		return "", fmt.Errorf("missing createPaymentData")
	}

	mode := stringField(createPaymentData, "mode")
	profile, err := s.cfg.Merchant(mode)
	if err != nil {
		return "", err
	}

	req, err := buildPlatformRequest(createPaymentData, walletPayload, clientIP)
	if err != nil {
		return "", err
	}

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("payment.mode", mode),
		attribute.String("payment.order_id", req.OrderID),
	)

	resp, err := s.newGateway(profile).CreatePayment(ctx, req)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("create payment: %w", err)
	}

	if resp.ResponseCode != 0 {
		err := fmt.Errorf("cannot create transaction: response code %d, detail: %s",
			resp.ResponseCode, resp.ResponseCodeDetail)
		span.RecordError(err)
		return "", err
	}

	s.publishProcessed(ctx, mode, req, resp.TransactionStatusLabel)

	return resp.TransactionStatusLabel, nil
}

func buildPlatformRequest(createPaymentData, walletPayload map[string]any, clientIP string) (*platform.PaymentRequest, error) {
	amount, err := strconv.ParseInt(stringField(createPaymentData, "amount"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	currency, err := strconv.Atoi(stringField(createPaymentData, "currency"))
	if err != nil {
		return nil, fmt.Errorf("parse currency: %w", err)
	}

	// Gson encodes absent values as the JSON literal null; json.Marshal of a
	// nil map does the same, so the wire shape matches the platform's
	// expectations either way.
	payload, err := json.Marshal(walletPayload)
	if err != nil {
		return nil, fmt.Errorf("encode wallet payload: %w", err)
	}
	deviceInformation, err := json.Marshal(createPaymentData["deviceInformation"])
	if err != nil {
		return nil, fmt.Errorf("encode device information: %w", err)
	}

	return &platform.PaymentRequest{
		Amount:             amount,
		Currency:           currency,
		OrderID:            calculateOrderID(stringField(createPaymentData, "orderId")),
		Email:              stringField(createPaymentData, "email"),
		CardSecurityCode:   stringField(createPaymentData, "cardSecurityCode"),
		PaymentOptionCode:  stringField(createPaymentData, "paymentOptionCode"),
		WalletPayload:      string(payload),
		DeviceInformation:  string(deviceInformation),
		ProductInformation: productInformation(createPaymentData["appVersion"]),
		ClientIP:           clientIP,
	}, nil
}

func (s *Service) publishProcessed(ctx context.Context, mode string, req *platform.PaymentRequest, status string) {
	if s.producer == nil {
		return
	}
	evt := events.Envelope{
		EventType:    "payment.processed",
		EventVersion: "1",
		AggregateID:  req.OrderID,
		Data: map[string]any{
			"orderId":           req.OrderID,
			"mode":              mode,
			"amount":            req.Amount,
			"currency":          req.Currency,
			"transactionStatus": status,
		},
	}
	if err := s.producer.Publish(ctx, s.cfg.Kafka.PaymentsTopic, req.OrderID, evt); err != nil {
		s.logger.Printf("failed to publish payment.processed for %s: %v", req.OrderID, err)
	}
}

// calculateOrderID keeps the merchant's order id, generating a prefixed one
// when none was provided.
func calculateOrderID(orderID string) string {
	if orderID != "" {
		return orderID
	}
	return orderIDPrefix + uuid.NewString()
}

// productInformation flattens the appVersion object into a single line:
// applicationId (versionCode - versionName).
func productInformation(appVersion any) string {
	version, ok := appVersion.(map[string]any)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s (%s - %s)",
		stringField(version, "applicationId"),
		stringField(version, "versionCode"),
		stringField(version, "versionName"))
}

// stringField normalizes a JSON scalar to its string form. The mobile SDKs
// send amounts and currency codes as strings, but plain numbers are accepted
// too.
func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
