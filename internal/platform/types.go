package platform

import "encoding/xml"

// PaymentRequest carries the fields of a single createPayment call, already
// parsed and encoded by the caller. Amount is in the smallest currency unit,
// Currency is the ISO 4217 numeric code.
type PaymentRequest struct {
	Amount             int64
	Currency           int
	OrderID            string
	Email              string
	CardSecurityCode   string
	PaymentOptionCode  string
	WalletPayload      string
	DeviceInformation  string
	ProductInformation string
	ClientIP           string
}

// CommonResponse is the platform's verdict on a createPayment call.
// ResponseCode 0 means the transaction was created; the status label tells
// whether it was authorised or refused.
type CommonResponse struct {
	ResponseCode           int    `xml:"responseCode"`
	ResponseCodeDetail     string `xml:"responseCodeDetail"`
	TransactionStatusLabel string `xml:"transactionStatusLabel"`
}

// SOAP 1.1 request envelope for the V5 web service. Go's encoding/xml emits
// the prefixed tag names literally, which is all the platform needs.
type requestEnvelope struct {
	XMLName xml.Name      `xml:"soapenv:Envelope"`
	SoapNS  string        `xml:"xmlns:soapenv,attr"`
	V5NS    string        `xml:"xmlns:v5,attr"`
	HeadNS  string        `xml:"xmlns:head,attr"`
	Header  requestHeader `xml:"soapenv:Header"`
	Body    requestBody   `xml:"soapenv:Body"`
}

// requestHeader carries the per-call authentication fields. The platform
// recomputes authToken from requestId+timestamp and the shop certificate.
type requestHeader struct {
	ShopID    string `xml:"head:shopId"`
	RequestID string `xml:"head:requestId"`
	Timestamp string `xml:"head:timestamp"`
	Mode      string `xml:"head:mode"`
	AuthToken string `xml:"head:authToken"`
}

type requestBody struct {
	CreatePayment createPayment `xml:"v5:createPayment"`
}

type createPayment struct {
	CommonRequest   commonRequest    `xml:"commonRequest"`
	PaymentRequest  paymentRequest   `xml:"paymentRequest"`
	OrderRequest    orderRequest     `xml:"orderRequest"`
	CardRequest     cardRequest      `xml:"cardRequest"`
	CustomerRequest *customerRequest `xml:"customerRequest,omitempty"`
	TechRequest     *techRequest     `xml:"techRequest,omitempty"`
}

type commonRequest struct {
	PaymentSource  string `xml:"paymentSource"`
	SubmissionDate string `xml:"submissionDate"`
	Comment        string `xml:"comment,omitempty"`
}

type paymentRequest struct {
	Amount              int64  `xml:"amount"`
	Currency            int    `xml:"currency"`
	ExpectedCaptureDate string `xml:"expectedCaptureDate"`
	PaymentOptionCode   string `xml:"paymentOptionCode,omitempty"`
}

type orderRequest struct {
	OrderID string `xml:"orderId"`
}

type cardRequest struct {
	Scheme           string `xml:"scheme"`
	CardSecurityCode string `xml:"cardSecurityCode,omitempty"`
	WalletPayload    string `xml:"walletPayload"`
}

type customerRequest struct {
	BillingDetails *billingDetails `xml:"billingDetails,omitempty"`
	ExtraDetails   *extraDetails   `xml:"extraDetails,omitempty"`
}

type billingDetails struct {
	Email string `xml:"email,omitempty"`
}

type extraDetails struct {
	IPAddress string `xml:"ipAddress,omitempty"`
}

type techRequest struct {
	BrowserUserAgent string `xml:"browserUserAgent,omitempty"`
	IntegrationType  string `xml:"integrationType,omitempty"`
}

// Response envelope. Tags match by local name so the platform's namespace
// prefixes do not matter.
type responseEnvelope struct {
	XMLName xml.Name     `xml:"Envelope"`
	Body    responseBody `xml:"Body"`
}

type responseBody struct {
	CreatePaymentResponse createPaymentResponse `xml:"createPaymentResponse"`
	Fault                 *soapFault            `xml:"Fault"`
}

type createPaymentResponse struct {
	Result createPaymentResult `xml:"result"`
}

type createPaymentResult struct {
	CommonResponse CommonResponse `xml:"commonResponse"`
}

type soapFault struct {
	Code    string `xml:"faultcode"`
	Message string `xml:"faultstring"`
}
