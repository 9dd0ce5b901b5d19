package enums

import "fmt"

// IssueType categorizes a problem flagged on an order.
type IssueType string

const (
	IssueTypeWrongAddress    IssueType = "wrong_address"
	IssueTypeRecipientAbsent IssueType = "recipient_absent"
	IssueTypeDamagedGoods    IssueType = "damaged_goods"
	IssueTypePaymentDispute  IssueType = "payment_dispute"
	IssueTypeOther           IssueType = "other"
)

var validIssueTypes = []IssueType{
	IssueTypeWrongAddress,
	IssueTypeRecipientAbsent,
	IssueTypeDamagedGoods,
	IssueTypePaymentDispute,
	IssueTypeOther,
}

// String implements fmt.Stringer.
func (i IssueType) String() string {
	return string(i)
}

// IsValid reports whether the value is a known IssueType.
func (i IssueType) IsValid() bool {
	for _, candidate := range validIssueTypes {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseIssueType converts raw input into an IssueType.
func ParseIssueType(value string) (IssueType, error) {
	for _, candidate := range validIssueTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid issue type %q", value)
}
