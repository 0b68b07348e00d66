package cleaner

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/prtr-cleaner/pkg/model"
)

const (
	tooLow      = "פליטה נמוכה מכמות הסף"
	tooLowFlow  = "הזרמה נמוכה מכמות הסף"
	noAccident  = "לא נפלט בתקלה"
	noSpill     = "לא הוזרם בתקלה"
	unavailable = model.SentinelUnavailable
)

func emissionTable(t *testing.T, pairs ...[2]model.Value) *model.Table {
	t.Helper()
	tbl := model.NewTable(model.ColKamutPlita, model.ColKamutPlitaBeTeunot)
	for _, p := range pairs {
		require.NoError(t, tbl.AppendRow([]model.Value{p[0], p[1]}))
	}
	return tbl
}

func pair(total, accident model.Value) [2]model.Value {
	return [2]model.Value{total, accident}
}

func newTestCleaner(t *testing.T) *DataCleaner {
	t.Helper()
	c, err := NewDataCleaner(zap.NewNop(), "MIFLAS", "cleanData")
	require.NoError(t, err)
	return c
}

func assertFloat(t *testing.T, want float64, v model.Value) {
	t.Helper()
	f, ok := v.Float()
	require.True(t, ok, "expected a number, got %s %q", v.Kind(), v.String())
	assert.InDelta(t, want, f, 1e-9)
}

func assertAccidental(t *testing.T, want bool, v model.Value) {
	t.Helper()
	b, ok := v.Truth()
	require.True(t, ok, "expected a bool, got %s", v.Kind())
	assert.Equal(t, want, b)
}

func TestNewDataCleaner(t *testing.T) {
	_, err := NewDataCleaner(nil, "MIFLAS", "cleanData")
	assert.Error(t, err)

	_, err = NewDataCleaner(zap.NewNop(), "", "cleanData")
	assert.Error(t, err)
}

func TestReconciliationRules(t *testing.T) {
	tests := []struct {
		name       string
		total      model.Value
		accident   model.Value
		rule       string
		accidental *bool
		routine    *float64
		keepTotal  *float64
	}{
		{name: "both too low", total: model.Text(tooLow), accident: model.Text(tooLowFlow), rule: "both_too_low", accidental: ptr(true)},
		{name: "too low without accident", total: model.Text(tooLow), accident: model.Text(noSpill), rule: "too_low_no_accident", accidental: ptr(false)},
		{name: "too low with a number", total: model.Text(tooLowFlow), accident: model.Text("150,5"), rule: "total_too_low", accidental: ptr(true)},
		{name: "too low with missing accident", total: model.Text(tooLow), accident: model.Missing(), rule: "total_too_low", accidental: ptr(true)},
		{name: "accident too low", total: model.Text("1,234"), accident: model.Text(tooLow), rule: "accident_too_low", accidental: ptr(true), routine: ptr(1234.0), keepTotal: ptr(1234.0)},
		{name: "no accident", total: model.Number(12), accident: model.Text(noAccident), rule: "no_accident", accidental: ptr(false), routine: ptr(12.0), keepTotal: ptr(12.0)},
		{name: "plain numbers", total: model.Text("12"), accident: model.Number(3), rule: "numeric", routine: ptr(0.0), keepTotal: ptr(12.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := emissionTable(t, pair(tt.total, tt.accident))
			report, err := newTestCleaner(t).Clean(tbl)
			require.NoError(t, err)

			assert.Equal(t, 1, report.RuleCounts[tt.rule])

			if tt.keepTotal != nil {
				assertFloat(t, *tt.keepTotal, tbl.Get(0, model.ColKamutPlita))
			} else {
				assert.True(t, tbl.Get(0, model.ColKamutPlita).IsMissing())
			}

			if tt.routine != nil {
				assertFloat(t, *tt.routine, tbl.Get(0, model.ColKamutPlitaLoBeTeunot))
			} else {
				assert.True(t, tbl.Get(0, model.ColKamutPlitaLoBeTeunot).IsMissing())
			}

			if tt.accidental != nil {
				assertAccidental(t, *tt.accidental, tbl.Get(0, model.ColAccidental))
				assert.True(t, tbl.Get(0, model.ColKamutPlitaBeTeunot).IsMissing())
			} else {
				assert.True(t, tbl.Get(0, model.ColAccidental).IsMissing())
				assertFloat(t, 3, tbl.Get(0, model.ColKamutPlitaBeTeunot))
			}
		})
	}
}

func TestRuleOrder(t *testing.T) {
	assert.Equal(t, []string{
		"both_too_low",
		"too_low_no_accident",
		"total_too_low",
		"accident_too_low",
		"no_accident",
		"numeric",
	}, RuleNames())
}

func TestCleanPrepass(t *testing.T) {
	tbl := emissionTable(t,
		pair(model.Text("1,234"), model.Text("12")),
		pair(model.Text(unavailable), model.Text(noAccident)),
		pair(model.Number(7), model.Text(unavailable)),
		pair(model.Text("about 5"), model.Text("1,2,3")),
	)

	report, err := newTestCleaner(t).Clean(tbl)
	require.NoError(t, err)

	t.Run("commas stripped before parsing", func(t *testing.T) {
		assertFloat(t, 1234, tbl.Get(0, model.ColKamutPlita))
		assertFloat(t, 12, tbl.Get(0, model.ColKamutPlitaBeTeunot))
		assert.Equal(t, 1, report.CommasRemoved[model.ColKamutPlita])
		assert.Equal(t, 1, report.CommasRemoved[model.ColKamutPlitaBeTeunot])
	})

	t.Run("unavailable becomes missing", func(t *testing.T) {
		assert.Equal(t, 2, report.Unavailable)
		assert.True(t, tbl.Get(1, model.ColKamutPlita).IsMissing())
		assert.True(t, tbl.Get(1, model.ColKamutPlitaLoBeTeunot).IsMissing())
		assertAccidental(t, false, tbl.Get(1, model.ColAccidental))
		assert.True(t, tbl.Get(2, model.ColKamutPlitaBeTeunot).IsMissing())
	})

	t.Run("non numeric values reported", func(t *testing.T) {
		assert.ElementsMatch(t, []string{"about 5"}, report.NonNumeric[model.ColKamutPlita])
		assert.Equal(t, []string{noAccident}, report.NonNumeric[model.ColKamutPlitaBeTeunot])
	})

	t.Run("unparsed values stay text", func(t *testing.T) {
		s, ok := tbl.Get(3, model.ColKamutPlita).Str()
		require.True(t, ok)
		assert.Equal(t, "about 5", s)
		assert.Equal(t, []string{"about 5"}, report.Unparsed[model.ColKamutPlita])
		assertFloat(t, 123, tbl.Get(3, model.ColKamutPlitaBeTeunot))
		assert.Equal(t, 1, report.ParseFailures())
	})

	t.Run("invariant holds for reconciled columns", func(t *testing.T) {
		for i := 0; i < tbl.NumRows(); i++ {
			acc := tbl.Get(i, model.ColAccidental)
			assert.Contains(t, []model.Kind{model.KindBool, model.KindMissing}, acc.Kind())
			assert.NotEqual(t, model.SentinelClassNonAccident, model.ClassifySentinel(tbl.Get(i, model.ColKamutPlitaBeTeunot)))
		}
	})
}

func TestCleanRejectsMissingColumns(t *testing.T) {
	tbl := model.NewTable(model.ColKamutPlita)
	_, err := newTestCleaner(t).Clean(tbl)
	assert.ErrorIs(t, err, model.ErrColumnNotFound)

	_, err = newTestCleaner(t).Clean(nil)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestWasteTotals(t *testing.T) {
	tbl := model.NewTable(
		model.ColSachTipulPsoletMesukenet, model.ColSachSilukPsoletMesukenet,
		model.ColSachTipulPsoletLoMesukenet, model.ColSachSilukPsoletLoMesukenet,
	)
	require.NoError(t, tbl.AppendRow([]model.Value{model.Number(10), model.Number(5), model.Number(3), model.Number(2)}))
	require.NoError(t, tbl.AppendRow([]model.Value{model.Number(1), model.Missing(), model.Text("4"), model.Number(1)}))

	ComputeWasteTotals(tbl, nil)

	assertFloat(t, 15, tbl.Get(0, model.ColPsoletMesukenetTotal))
	assertFloat(t, 5, tbl.Get(0, model.ColPsoletLoMesukenetTotal))
	assert.True(t, tbl.Get(1, model.ColPsoletMesukenetTotal).IsMissing())
	assertFloat(t, 5, tbl.Get(1, model.ColPsoletLoMesukenetTotal))

	t.Run("absent source columns give missing totals", func(t *testing.T) {
		tbl := emissionTable(t, pair(model.Number(1), model.Number(0)))
		report, err := newTestCleaner(t).Clean(tbl)
		require.NoError(t, err)
		assert.NotNil(t, report)
		assert.True(t, tbl.Get(0, model.ColPsoletMesukenetTotal).IsMissing())
		assert.True(t, tbl.Get(0, model.ColPsoletLoMesukenetTotal).IsMissing())
	})
}

func TestAuditLimit(t *testing.T) {
	tbl := emissionTable(t,
		pair(model.Text(tooLow), model.Text(tooLow)),
		pair(model.Text(tooLow), model.Text(tooLow)),
	)
	report, err := newTestCleaner(t).WithAuditLimit(2).Clean(tbl)
	require.NoError(t, err)

	assert.Len(t, report.Operations, 2)
	assert.Positive(t, report.OperationsDropped)
	assert.Equal(t, model.OpSentinelReconciliation, report.Operations[0].CleaningOperation)
	assert.Equal(t, "both_too_low", report.Operations[0].CleaningReason)
	assert.Equal(t, "MIFLAS", report.Operations[0].SchemaName)
}

func TestShortenNames(t *testing.T) {
	tbl := model.NewTable(model.ColTchumPeilut)
	require.NoError(t, tbl.AppendRow([]model.Value{model.Text("19 - ייצור אספלט")}))
	require.NoError(t, tbl.AppendRow([]model.Value{model.Text("unknown activity")}))
	require.NoError(t, tbl.AppendRow([]model.Value{model.Missing()}))

	n, err := ShortenProductNames(tbl, model.ColTchumPeilut)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "19- ייצור אספלט", tbl.Get(0, model.ColTchumPeilut).String())
	assert.Equal(t, "unknown activity", tbl.Get(1, model.ColTchumPeilut).String())

	require.NoError(t, ShortenName(tbl, model.ColTchumPeilut, 5))
	assert.Equal(t, "19- י", tbl.Get(0, model.ColTchumPeilut).String())
	assert.True(t, tbl.Get(2, model.ColTchumPeilut).IsMissing())

	assert.ErrorIs(t, ShortenName(tbl, "nope", 5), model.ErrColumnNotFound)
	assert.ErrorIs(t, ShortenName(tbl, model.ColTchumPeilut, 0), model.ErrInvalidInput)
}

func TestRecordCleaningOperations(t *testing.T) {
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	ctx := context.Background()
	rec, err := NewAuditRecorder(ctx, db, zap.NewNop())
	require.NoError(t, err)

	tbl := emissionTable(t, pair(model.Text("1,5"), model.Text(noAccident)))
	report, err := newTestCleaner(t).Clean(tbl)
	require.NoError(t, err)
	require.NotEmpty(t, report.Operations)

	require.NoError(t, rec.RecordCleaningOperations(ctx, report.Operations))
	require.NoError(t, rec.RecordCleaningOperations(ctx, nil))

	n, err := rec.CountOperations(ctx, "MIFLAS", "cleanData")
	require.NoError(t, err)
	assert.Equal(t, len(report.Operations), n)
}

func ptr[T any](v T) *T { return &v }
