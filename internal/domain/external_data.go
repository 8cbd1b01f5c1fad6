package domain

// ExternalData pairs a URN with the record a provider returned for it.
// It is never mutated after the resolver creates it.
type ExternalData struct {
	URNString string `json:"urn"`
	URN       URN    `json:"parsed_urn"`
	Record    Record `json:"data"`
}

// NewExternalData binds a parsed URN to its record.
func NewExternalData(urn URN, record Record) *ExternalData {
	return &ExternalData{
		URNString: urn.String(),
		URN:       urn,
		Record:    record,
	}
}

// StoredExternalData is the persisted form of ExternalData: a URN key and
// the record serialized as JSON.
type StoredExternalData struct {
	URN     string
	Payload []byte
}
