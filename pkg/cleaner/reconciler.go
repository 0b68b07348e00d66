// pkg/cleaner/reconciler.go
package cleaner

import (
	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

// emissionPair is one row's view of the two raw emission columns after the
// comma and unavailable pre-pass
type emissionPair struct {
	total    model.Value // KamutPlita
	accident model.Value // KamutPlitaBeTeunot
}

func (p emissionPair) totalIs(c model.SentinelClass) bool {
	return model.ClassifySentinel(p.total) == c
}

func (p emissionPair) accidentIs(c model.SentinelClass) bool {
	return model.ClassifySentinel(p.accident) == c
}

// reconciled holds the four derived cells for a row
type reconciled struct {
	total      model.Value
	accident   model.Value
	routine    model.Value // KamutPlitaLoBeTeunot
	accidental model.Value
}

// reconciliationRule is a guarded action; the first rule whose predicate matches wins
type reconciliationRule struct {
	name    string
	matches func(emissionPair) bool
	apply   func(emissionPair) reconciled
}

func allMissing(accidental bool) func(emissionPair) reconciled {
	return func(emissionPair) reconciled {
		return reconciled{
			total:      model.Missing(),
			accident:   model.Missing(),
			routine:    model.Missing(),
			accidental: model.Bool(accidental),
		}
	}
}

func routineEqualsTotal(accidental bool) func(emissionPair) reconciled {
	return func(p emissionPair) reconciled {
		return reconciled{
			total:      p.total,
			accident:   model.Missing(),
			routine:    p.total,
			accidental: model.Bool(accidental),
		}
	}
}

// reconciliationRules is evaluated top-down. Order matters: rules 4 and 5 rely on
// rules 1-3 having claimed every row whose total is below threshold.
var reconciliationRules = []reconciliationRule{
	{
		name: "both_too_low",
		matches: func(p emissionPair) bool {
			return p.totalIs(model.SentinelClassTooLow) && p.accidentIs(model.SentinelClassTooLow)
		},
		apply: allMissing(true),
	},
	{
		name: "too_low_no_accident",
		matches: func(p emissionPair) bool {
			return p.totalIs(model.SentinelClassTooLow) && p.accidentIs(model.SentinelClassNonAccident)
		},
		apply: allMissing(false),
	},
	{
		name: "total_too_low",
		matches: func(p emissionPair) bool {
			return p.totalIs(model.SentinelClassTooLow)
		},
		apply: allMissing(true),
	},
	{
		name: "accident_too_low",
		matches: func(p emissionPair) bool {
			return p.accidentIs(model.SentinelClassTooLow)
		},
		apply: routineEqualsTotal(true),
	},
	{
		name: "no_accident",
		matches: func(p emissionPair) bool {
			return p.accidentIs(model.SentinelClassNonAccident)
		},
		apply: routineEqualsTotal(false),
	},
	{
		name:    "numeric",
		matches: func(emissionPair) bool { return true },
		apply: func(p emissionPair) reconciled {
			// Routine amount keeps its initial zero; Accidental stays unset.
			return reconciled{
				total:      p.total,
				accident:   p.accident,
				routine:    model.Number(0),
				accidental: model.Missing(),
			}
		},
	},
}

// RuleNames lists the reconciliation rules in evaluation order
func RuleNames() []string {
	names := make([]string, len(reconciliationRules))
	for i, r := range reconciliationRules {
		names[i] = r.name
	}
	return names
}

// reconcilePair applies the first matching rule
func reconcilePair(p emissionPair) (reconciled, string) {
	for _, r := range reconciliationRules {
		if r.matches(p) {
			return r.apply(p), r.name
		}
	}
	// unreachable: the last rule matches everything
	return reconciled{total: p.total, accident: p.accident}, ""
}
