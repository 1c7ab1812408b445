package model

type Status string

const (
	StatusRequest     Status = "Request"
	StatusProcessing  Status = "Processing"
	StatusOffer       Status = "Offer"
	StatusReservation Status = "Reservation"
	StatusActive      Status = "Active"
	StatusCanceled    Status = "Canceled"
)

var Statuses = []Status{StatusRequest, StatusProcessing, StatusOffer, StatusReservation, StatusActive, StatusCanceled}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

type CustomerType string

const (
	CustomerIndividual CustomerType = "B2C-Individual"
	CustomerLegal      CustomerType = "B2C-Legal"
	CustomerSubagent   CustomerType = "B2B-Subagent"
)

func (c CustomerType) Valid() bool {
	return c == CustomerIndividual || c == CustomerLegal || c == CustomerSubagent
}

type Language string

const DefaultLanguage Language = "Srpski"

// Situation is the envelope handed to the engine and the wire: the dossier plus
// its derived figures at one point in time.
type Situation struct {
	Dossier *Dossier `json:"dossier"`
	Summary *Summary `json:"summary,omitempty"`
}

type Dossier struct {
	CisCode         string                         `json:"cisCode"`
	ResCode         *string                        `json:"resCode"`
	ClientReference string                         `json:"clientReference"`
	Status          Status                         `json:"status"`
	CustomerType    CustomerType                   `json:"customerType"`
	Booker          Booker                         `json:"booker"`
	Passengers      []Passenger                    `json:"passengers"`
	TripItems       []TripItem                     `json:"tripItems"`
	Finance         Finance                        `json:"finance"`
	Insurance       Insurance                      `json:"insurance"`
	Logs            []LogEntry                     `json:"logs"`
	Notes           Notes                          `json:"notes"`
	Language        Language                       `json:"language"`
	DocSettings     map[DocumentType]Language      `json:"docSettings"`
	DocumentTracker map[DocumentType]DocumentState `json:"documentTracker"`
}

// Summary holds the derived financial figures. It is never stored on the dossier.
type Summary struct {
	TotalBrutto   float64 `json:"totalBrutto"`
	TotalNet      float64 `json:"totalNet"`
	TotalProfit   float64 `json:"totalProfit"`
	ProfitPercent float64 `json:"profitPercent"`
	TotalPaid     float64 `json:"totalPaid"`
	Balance       float64 `json:"balance"`
}

type Booker struct {
	FullName    string `json:"fullName"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Country     string `json:"country"`
	IDNumber    string `json:"idNumber"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	CompanyPib  string `json:"companyPib"`
	CompanyName string `json:"companyName"`
}

type TravelerType string

const (
	TravelerAdult  TravelerType = "Adult"
	TravelerChild  TravelerType = "Child"
	TravelerInfant TravelerType = "Infant"
)

type Passenger struct {
	ID          string       `json:"id"`
	FirstName   string       `json:"firstName"`
	LastName    string       `json:"lastName"`
	IDNumber    string       `json:"idNumber"`
	BirthDate   string       `json:"birthDate"`
	Type        TravelerType `json:"type"`
	Nationality string       `json:"nationality,omitempty"`
	Address     string       `json:"address,omitempty"`
	City        string       `json:"city,omitempty"`
	Country     string       `json:"country,omitempty"`
	Phone       string       `json:"phone,omitempty"`
	Email       string       `json:"email,omitempty"`
}

func (p Passenger) Key() string { return p.ID }

func (p Passenger) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

type Finance struct {
	Currency     Currency      `json:"currency"`
	Installments []Installment `json:"installments"`
	Payments     []Payment     `json:"payments"`
}

type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "pending"
	InstallmentPaid    InstallmentStatus = "paid"
)

type Installment struct {
	ID      string            `json:"id"`
	Amount  float64           `json:"amount"`
	DueDate string            `json:"dueDate"`
	Status  InstallmentStatus `json:"status"`
}

func (i Installment) Key() string { return i.ID }

// Insurance is written once by the signing flow and never cleared by the system.
type Insurance struct {
	GuaranteePolicy       string `json:"guaranteePolicy"`
	InsurerContact        string `json:"insurerContact"`
	InsurerEmail          string `json:"insurerEmail"`
	CancellationOffered   bool   `json:"cancellationOffered"`
	HealthOffered         bool   `json:"healthOffered"`
	ConfirmationText      string `json:"confirmationText"`
	ConfirmationTimestamp string `json:"confirmationTimestamp"`
}

func (i Insurance) Signed() bool { return i.ConfirmationTimestamp != "" }

type Notes struct {
	General  string `json:"general"`
	Contract string `json:"contract"`
	Voucher  string `json:"voucher"`
	Internal string `json:"internal"`
}
