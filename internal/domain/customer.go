package domain

// Confidence is the provenance tag on a configured portal group id.
type Confidence string

const (
	ConfidenceConfirmed  Confidence = "confirmed"  // verified by the operator
	ConfidenceExtracted  Confidence = "extracted"  // inferred from prior automation
	ConfidenceUnverified Confidence = "unverified"
)

// Customer maps an operator-facing slug to the account and the portal group
// the weekly report is posted to.
type Customer struct {
	Key               string     `yaml:"-"`
	DisplayName       string     `yaml:"display_name"`
	AccountNumber     string     `yaml:"account_number"`
	PortalGroupID     string     `yaml:"portal_group_id"`
	GroupIDConfidence Confidence `yaml:"group_id_confidence"`
}

// CaseFilter returns the value passed to the case CLI as the customer
// argument: the account number when known, the slug otherwise.
func (c Customer) CaseFilter() string {
	if c.AccountNumber != "" {
		return c.AccountNumber
	}
	return c.Key
}

// Name returns the display name, falling back to the slug.
func (c Customer) Name() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Key
}
