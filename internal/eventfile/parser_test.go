package eventfile_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiomx/ironbook/internal/common"
	"github.com/axiomx/ironbook/internal/eventfile"
)

func TestParseHappyPath(t *testing.T) {
	text := `A 1 GoodTillCancel B 100 10
A 2 FillAndKill S 100 15
M 1 S 100 10
C 2

R 1 0 1
`
	events, expect, err := eventfile.Parse(strings.NewReader(text))
	require.NoError(t, err)
	require.Len(t, events, 4)

	assert.Equal(t, eventfile.KindAdd, events[0].Kind)
	assert.EqualValues(t, 1, events[0].ID)
	assert.Equal(t, common.GoodTillCancel, events[0].Type)
	assert.Equal(t, common.Buy, events[0].Side)
	assert.EqualValues(t, 100, events[0].Price)
	assert.EqualValues(t, 10, events[0].Qty)

	assert.Equal(t, eventfile.KindAdd, events[1].Kind)
	assert.Equal(t, common.FillAndKill, events[1].Type)

	assert.Equal(t, eventfile.KindModify, events[2].Kind)
	assert.Equal(t, common.Sell, events[2].Side)

	assert.Equal(t, eventfile.KindCancel, events[3].Kind)
	assert.EqualValues(t, 2, events[3].ID)

	assert.Equal(t, eventfile.Expectation{TotalOrders: 1, BidLevels: 0, AskLevels: 1}, expect)
}

func TestParseRejectsNegativeField(t *testing.T) {
	text := "A 1 GoodTillCancel B -100 10\n\nR 1 0 0\n"
	_, _, err := eventfile.Parse(strings.NewReader(text))
	require.Error(t, err)
	var malformed *eventfile.MalformedInputError
	assert.ErrorAs(t, err, &malformed)
}

func TestParseRejectsUnknownSide(t *testing.T) {
	text := "A 1 GoodTillCancel X 100 10\n\nR 1 0 0\n"
	_, _, err := eventfile.Parse(strings.NewReader(text))
	require.Error(t, err)
}

func TestParseRejectsUnknownOrderType(t *testing.T) {
	text := "A 1 Stop B 100 10\n\nR 1 0 0\n"
	_, _, err := eventfile.Parse(strings.NewReader(text))
	require.Error(t, err)
}

func TestParseRejectsNonFinalR(t *testing.T) {
	text := "A 1 GoodTillCancel B 100 10\n\nR 1 1 0\nA 2 GoodTillCancel B 100 10\n"
	_, _, err := eventfile.Parse(strings.NewReader(text))
	require.Error(t, err)
}

func TestParseRejectsEventAfterBlank(t *testing.T) {
	text := "A 1 GoodTillCancel B 100 10\n\nA 2 GoodTillCancel B 100 10\nR 2 1 0\n"
	_, _, err := eventfile.Parse(strings.NewReader(text))
	require.Error(t, err)
}

func TestParseRequiresTrailingR(t *testing.T) {
	text := "A 1 GoodTillCancel B 100 10\n"
	_, _, err := eventfile.Parse(strings.NewReader(text))
	require.Error(t, err)
}

func TestParseRejectsUnrecognizedTag(t *testing.T) {
	text := "X 1 2 3\n\nR 0 0 0\n"
	_, _, err := eventfile.Parse(strings.NewReader(text))
	require.Error(t, err)
}
