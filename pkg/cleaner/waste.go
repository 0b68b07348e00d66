package cleaner

import (
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

// wasteTotals maps each total column to the treatment and disposal columns it sums
var wasteTotals = []struct {
	total     string
	treatment string
	disposal  string
}{
	{model.ColPsoletMesukenetTotal, model.ColSachTipulPsoletMesukenet, model.ColSachSilukPsoletMesukenet},
	{model.ColPsoletLoMesukenetTotal, model.ColSachTipulPsoletLoMesukenet, model.ColSachSilukPsoletLoMesukenet},
}

// computeWasteTotals fills PsoletMesukenetTotal and PsoletLoMesukenetTotal.
// Missing or non-numeric inputs give a Missing total.
func (c *DataCleaner) computeWasteTotals(tbl *model.Table, report *Report) {
	for _, w := range wasteTotals {
		sums := make([]model.Value, tbl.NumRows())

		if err := tbl.MustHave(w.treatment, w.disposal); err != nil {
			c.logger.Warn("Waste total left empty",
				zap.String("total", w.total),
				zap.Error(err))
		} else {
			for i := range sums {
				a, _ := parseNumeric(tbl.Get(i, w.treatment))
				b, _ := parseNumeric(tbl.Get(i, w.disposal))
				sums[i] = sumValues(a, b)
				if sums[i].IsMissing() && !(a.IsMissing() && b.IsMissing()) {
					c.record(report, c.newOperation(w.total, i, model.Missing(), sums[i], model.OpMissingPropagation, "incomplete_waste_inputs"))
				}
			}
		}

		_ = tbl.SetColumn(w.total, sums)
	}
}

// ComputeWasteTotals adds the two waste total columns without running the reconciler
func ComputeWasteTotals(tbl *model.Table, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &DataCleaner{logger: logger, now: time.Now}
	c.computeWasteTotals(tbl, &Report{})
}
