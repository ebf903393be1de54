package ops

import (
	"database/sql"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/nkhandelwal/khata/internal/db"
)

// PersonSummary aggregates a counterparty's open obligations.
type PersonSummary struct {
	Person      string          `json:"person_name"`
	OpenCount   int             `json:"open_count"`
	Outstanding decimal.Decimal `json:"outstanding"`
	NextDue     *string         `json:"next_due,omitempty"`
}

// SummaryOutput contains the result of the Summary operation.
type SummaryOutput struct {
	People           []PersonSummary `json:"people"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	OpenObligations  int             `json:"open_obligations"`
}

// Summary answers "what's pending?": outstanding totals grouped by person,
// biggest debtor first. Names are grouped verbatim; "anjali" and "Anjali"
// are different people as far as the ledger knows.
func Summary(database *sql.DB) (*SummaryOutput, error) {
	open, err := db.ListOpen(database, "")
	if err != nil {
		return nil, err
	}

	byPerson := make(map[string]*PersonSummary)
	total := decimal.Zero
	for _, o := range open {
		s, ok := byPerson[o.Person]
		if !ok {
			s = &PersonSummary{Person: o.Person, Outstanding: decimal.Zero}
			byPerson[o.Person] = s
		}
		s.OpenCount++
		s.Outstanding = s.Outstanding.Add(o.RemainingAmount)
		if o.DueDate != nil && (s.NextDue == nil || *o.DueDate < *s.NextDue) {
			s.NextDue = o.DueDate
		}
		total = total.Add(o.RemainingAmount)
	}

	people := make([]PersonSummary, 0, len(byPerson))
	for _, s := range byPerson {
		people = append(people, *s)
	}
	sort.Slice(people, func(i, j int) bool {
		if !people[i].Outstanding.Equal(people[j].Outstanding) {
			return people[i].Outstanding.GreaterThan(people[j].Outstanding)
		}
		return people[i].Person < people[j].Person
	})

	return &SummaryOutput{
		People:           people,
		TotalOutstanding: total,
		OpenObligations:  len(open),
	}, nil
}
