package console

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChoice(t *testing.T) {
	n, err := ParseChoice(" 3 ", 7)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, bad := range []string{"0", "8", "x", ""} {
		_, err := ParseChoice(bad, 7)
		assert.ErrorIs(t, err, ErrInvalidChoice, bad)
	}
}

func TestMenuReprompts(t *testing.T) {
	var buf bytes.Buffer
	p := NewScriptedPrompter("9", "abc", "2")

	choice, err := Menu(p, NewPrinter(&buf), "Choose", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, 2, choice)
	assert.Len(t, p.Messages, 3)
	assert.Contains(t, buf.String(), "between 1 and 3")
}

func TestYesNo(t *testing.T) {
	var buf bytes.Buffer
	p := NewScriptedPrompter("maybe", "N")

	ok, err := YesNo(p, NewPrinter(&buf), "Done?")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, buf.String(), "y or n")
}

func TestIntInRange(t *testing.T) {
	p := NewScriptedPrompter("0", "10", "4")
	v, err := IntInRange(p, NewPrinter(&bytes.Buffer{}), "How many?", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, v)
}

func TestScriptExhausted(t *testing.T) {
	p := NewScriptedPrompter()
	_, err := Menu(p, NewPrinter(&bytes.Buffer{}), "Choose", []string{"a"})
	assert.ErrorIs(t, err, ErrScriptExhausted)
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).Summary("Deleted columns", []string{"Flag"})
	assert.Contains(t, buf.String(), "Deleted columns")
	assert.Contains(t, buf.String(), "Flag")
}
