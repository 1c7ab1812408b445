package model

type Currency string

const (
	CurrencyRSD Currency = "RSD"
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
)

func (c Currency) Valid() bool {
	return c == CurrencyRSD || c == CurrencyEUR || c == CurrencyUSD
}

type PaymentMethod string

const (
	MethodCash     PaymentMethod = "Cash"
	MethodCard     PaymentMethod = "Card"
	MethodTransfer PaymentMethod = "Transfer"
	MethodCheck    PaymentMethod = "Check"
)

func (m PaymentMethod) Valid() bool {
	return m == MethodCash || m == MethodCard || m == MethodTransfer || m == MethodCheck
}

type PaymentStatus string

const (
	PaymentActive  PaymentStatus = "active"
	PaymentDeleted PaymentStatus = "deleted"
)

// Payment moves Draft (Date == "") -> Committed (Date set) -> Voided (Status deleted).
type Payment struct {
	ID                string         `json:"id"`
	Date              string         `json:"date"`
	Amount            float64        `json:"amount"`
	Currency          Currency       `json:"currency"`
	Method            PaymentMethod  `json:"method"`
	ReceiptNo         string         `json:"receiptNo"`
	FiscalReceiptNo   string         `json:"fiscalReceiptNo,omitempty"`
	RegistrationMark  string         `json:"registrationMark,omitempty"`
	CardType          string         `json:"cardType,omitempty"`
	InstallmentsCount int            `json:"installmentsCount,omitempty"`
	BankName          string         `json:"bankName,omitempty"`
	PayerName         string         `json:"payerName,omitempty"`
	Checks            []Check        `json:"checks"`
	IsExternalPayer   bool           `json:"isExternalPayer,omitempty"`
	TravelerPayerID   string         `json:"travelerPayerId,omitempty"`
	PayerDetails      *ExternalPayer `json:"payerDetails,omitempty"`
	ExchangeRate      float64        `json:"exchangeRate"`
	AmountInRsd       float64        `json:"amountInRsd"`
	Status            PaymentStatus  `json:"status"`
}

func (p Payment) Key() string { return p.ID }

func (p Payment) Draft() bool { return p.Date == "" }

func (p Payment) Voided() bool { return p.Status == PaymentDeleted }

type ExternalPayer struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Country  string `json:"country"`
}

type Check struct {
	ID              string  `json:"id"`
	CheckNumber     string  `json:"checkNumber"`
	Bank            string  `json:"bank"`
	Amount          float64 `json:"amount"`
	RealizationDate string  `json:"realizationDate"`
}

func (c Check) Key() string { return c.ID }
