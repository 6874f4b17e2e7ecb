package ledger

// Validation rule identifiers, used in logs and metrics labels.
const (
	RuleAmountPositive  = "amount_positive"
	RuleAmountMaximum   = "amount_maximum"
	RuleCardTokenEmpty  = "card_token_empty"
	RuleCardTokenLength = "card_token_length"
	RuleEmailFormat     = "email_format"
)

// ValidationError reports a payment submission rejected before any gateway
// call was made. Rule identifies the violated rule.
type ValidationError struct {
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErr(rule, message string) *ValidationError {
	return &ValidationError{Rule: rule, Message: message}
}
