package model

// AccountClass distinguishes accounts holding money from accounts
// representing money owed.
type AccountClass string

// Account class constants.
const (
	ClassAsset     AccountClass = "asset"
	ClassLiability AccountClass = "liability"
)

// AccountSubtype refines a liability classification.
type AccountSubtype string

// Account subtype constants.
const (
	SubtypeNone     AccountSubtype = "none"
	SubtypeDebt     AccountSubtype = "debt"
	SubtypeMortgage AccountSubtype = "mortgage"
	SubtypeLoan     AccountSubtype = "loan"
)

// AccountClassification is the result of classifying an account name.
// It is derived on demand and never stored on the transaction.
type AccountClassification struct {
	Class   AccountClass
	Subtype AccountSubtype
	Matched bool // false when no rule matched and the asset default applied
}

// IsLiability reports whether sign semantics invert for this account.
func (c AccountClassification) IsLiability() bool {
	return c.Class == ClassLiability
}
