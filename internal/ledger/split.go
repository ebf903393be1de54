package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/nkhandelwal/khata/internal/errors"
)

// Share is one person's computed portion of a bill. Shares are a transient
// calculation result; persisting them as obligations is the caller's job.
type Share struct {
	Person string          `json:"person"`
	Amount decimal.Decimal `json:"amount"`
}

// SumShares returns the total of all share amounts.
func SumShares(shares []Share) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s.Amount)
	}
	return sum
}

// EqualSplit divides total equally among the listed persons plus, when
// userIncluded is set, the paying user. userIncluded must come from the
// intent; it is never inferred here. Shares are rounded down at scale and
// the rounding remainder goes to the first listed person, so that
//
//	sum(shares) + payer share == total
//
// holds exactly. The payer's own share is not returned; nobody owes the
// payer their own money.
func EqualSplit(total decimal.Decimal, persons []string, userIncluded bool, scale int32) ([]Share, error) {
	if total.IsNegative() {
		return nil, errors.NewInvalidSplit("total must not be negative")
	}
	if len(persons) == 0 {
		return nil, errors.NewInvalidSplit("at least one person must share the bill")
	}

	n := int64(len(persons))
	if userIncluded {
		n++
	}

	base := total.Div(decimal.NewFromInt(n)).RoundDown(scale)
	remainder := total.Sub(base.Mul(decimal.NewFromInt(n)))

	shares := make([]Share, len(persons))
	for i, p := range persons {
		shares[i] = Share{Person: p, Amount: base}
	}
	// Remainder to the first listed person; deterministic, no silent loss.
	shares[0].Amount = shares[0].Amount.Add(remainder)

	return shares, nil
}

// UnequalSplit validates the fixed contributions against total and splits
// the residual equally among the rest (plus the user when userIncluded).
// An empty rest with nobody to absorb a positive residual is rejected; with
// userIncluded the payer absorbs it and only the fixed shares are returned.
func UnequalSplit(total decimal.Decimal, fixed []Contribution, rest []string, userIncluded bool, scale int32) ([]Share, error) {
	if total.IsNegative() {
		return nil, errors.NewInvalidSplit("total must not be negative")
	}

	fixedSum := decimal.Zero
	for _, c := range fixed {
		if c.Amount.IsNegative() {
			return nil, errors.NewInvalidSplit("fixed contribution for " + c.Person + " must not be negative")
		}
		fixedSum = fixedSum.Add(c.Amount)
	}
	if fixedSum.GreaterThan(total) {
		return nil, errors.NewOverAllocated(fixedSum.String(), total.String())
	}

	shares := make([]Share, 0, len(fixed)+len(rest))
	for _, c := range fixed {
		shares = append(shares, Share{Person: c.Person, Amount: c.Amount})
	}

	residual := total.Sub(fixedSum)
	if len(rest) == 0 {
		if residual.IsPositive() && !userIncluded {
			return nil, errors.NewInvalidSplit("residual " + residual.String() + " has no remaining participants")
		}
		return shares, nil
	}

	restShares, err := EqualSplit(residual, rest, userIncluded, scale)
	if err != nil {
		return nil, err
	}
	return append(shares, restShares...), nil
}
