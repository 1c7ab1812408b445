package model

type DocumentType string

const (
	DocContract  DocumentType = "contract"
	DocVoucher   DocumentType = "voucher"
	DocItinerary DocumentType = "itinerary"
	DocPaxList   DocumentType = "paxList"
	DocProforma  DocumentType = "proforma"
	DocAdvance   DocumentType = "advance"
	DocFinal     DocumentType = "final"
	DocPayment   DocumentType = "payment"
)

var DocumentTypes = []DocumentType{DocContract, DocVoucher, DocItinerary, DocPaxList, DocProforma, DocAdvance, DocFinal, DocPayment}

func (t DocumentType) Valid() bool {
	for _, v := range DocumentTypes {
		if v == t {
			return true
		}
	}
	return false
}

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelViber Channel = "viber"
	ChannelPrint Channel = "print"
)

type DocumentState struct {
	Generated   bool   `json:"generated"`
	GeneratedAt string `json:"generatedAt,omitempty"`
	SentEmail   bool   `json:"sentEmail"`
	SentViber   bool   `json:"sentViber"`
	SentPrint   bool   `json:"sentPrint"`
}
