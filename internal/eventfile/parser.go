// Package eventfile implements the text event-file grammar used to drive
// and check a book from scripted scenarios: a small, self-contained
// reader used by cmd/ironbookd's replay subcommand and by this module's
// own end-to-end tests.
package eventfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/axiomx/ironbook/internal/common"
)

// Kind distinguishes the three mutating event lines.
type Kind int

const (
	KindAdd Kind = iota
	KindModify
	KindCancel
)

// Event is one parsed line of the event section.
type Event struct {
	Kind  Kind
	ID    common.OrderID
	Type  common.OrderType // only meaningful for KindAdd
	Side  common.Side      // meaningful for KindAdd/KindModify
	Price common.Price     // meaningful for KindAdd/KindModify
	Qty   common.Quantity  // meaningful for KindAdd/KindModify
}

// Expectation is the parsed `R` line: the test's expected post-state.
type Expectation struct {
	TotalOrders int
	BidLevels   int
	AskLevels   int
}

// MalformedInputError reports a programmer error in the input: a
// non-final or missing R line, a negative or non-integer numeric field,
// an unknown side, order type or line tag, a wrong field count, or an
// event line after the blank terminator. These are fatal — callers
// should treat them as process-ending, not as business rejections.
type MalformedInputError struct {
	Line int
	Msg  string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("eventfile: line %d: %s", e.Line, e.Msg)
}

// Parse reads the whole event-file grammar: zero or more A/M/C lines, a
// blank line terminating the event section, then exactly one R line at
// end of file.
func Parse(r io.Reader) ([]Event, Expectation, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, Expectation{}, err
	}

	// Trailing blank lines are editor noise, not meaningful structure;
	// trim them before checking "R is the last line".
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	var (
		events      []Event
		expectation Expectation
		haveExpect  bool
		sawBlank    bool
	)

	for i, line := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			sawBlank = true
			continue
		}

		fields := strings.Fields(trimmed)
		tag := fields[0]

		if tag == "R" {
			if i != len(lines)-1 {
				return nil, Expectation{}, &MalformedInputError{Line: lineNo, Msg: "R line must be the last line of the file"}
			}
			exp, err := parseExpectation(fields, lineNo)
			if err != nil {
				return nil, Expectation{}, err
			}
			expectation = exp
			haveExpect = true
			continue
		}

		if sawBlank {
			return nil, Expectation{}, &MalformedInputError{Line: lineNo, Msg: "event line after the blank section terminator"}
		}

		ev, err := parseEvent(tag, fields, lineNo)
		if err != nil {
			return nil, Expectation{}, err
		}
		events = append(events, ev)
	}

	if !haveExpect {
		return nil, Expectation{}, &MalformedInputError{Line: len(lines), Msg: "file must end with exactly one R line"}
	}

	return events, expectation, nil
}

func parseEvent(tag string, fields []string, lineNo int) (Event, error) {
	switch tag {
	case "A":
		if len(fields) != 6 {
			return Event{}, &MalformedInputError{Line: lineNo, Msg: "A line requires 5 fields: id type side price qty"}
		}
		id, err := parseNonNegative(fields[1], lineNo, "id")
		if err != nil {
			return Event{}, err
		}
		orderType, err := parseOrderType(fields[2], lineNo)
		if err != nil {
			return Event{}, err
		}
		side, err := parseSide(fields[3], lineNo)
		if err != nil {
			return Event{}, err
		}
		price, err := parseNonNegative(fields[4], lineNo, "price")
		if err != nil {
			return Event{}, err
		}
		qty, err := parseNonNegative(fields[5], lineNo, "qty")
		if err != nil {
			return Event{}, err
		}
		return Event{
			Kind: KindAdd, ID: common.OrderID(id), Type: orderType, Side: side,
			Price: common.Price(price), Qty: common.Quantity(qty),
		}, nil

	case "M":
		if len(fields) != 5 {
			return Event{}, &MalformedInputError{Line: lineNo, Msg: "M line requires 4 fields: id side price qty"}
		}
		id, err := parseNonNegative(fields[1], lineNo, "id")
		if err != nil {
			return Event{}, err
		}
		side, err := parseSide(fields[2], lineNo)
		if err != nil {
			return Event{}, err
		}
		price, err := parseNonNegative(fields[3], lineNo, "price")
		if err != nil {
			return Event{}, err
		}
		qty, err := parseNonNegative(fields[4], lineNo, "qty")
		if err != nil {
			return Event{}, err
		}
		return Event{
			Kind: KindModify, ID: common.OrderID(id), Side: side,
			Price: common.Price(price), Qty: common.Quantity(qty),
		}, nil

	case "C":
		if len(fields) != 2 {
			return Event{}, &MalformedInputError{Line: lineNo, Msg: "C line requires 1 field: id"}
		}
		id, err := parseNonNegative(fields[1], lineNo, "id")
		if err != nil {
			return Event{}, err
		}
		return Event{Kind: KindCancel, ID: common.OrderID(id)}, nil

	default:
		return Event{}, &MalformedInputError{Line: lineNo, Msg: fmt.Sprintf("unrecognized event tag %q", tag)}
	}
}

func parseExpectation(fields []string, lineNo int) (Expectation, error) {
	if len(fields) != 4 {
		return Expectation{}, &MalformedInputError{Line: lineNo, Msg: "R line requires 3 fields: total_orders bid_levels ask_levels"}
	}
	total, err := parseNonNegative(fields[1], lineNo, "total_orders")
	if err != nil {
		return Expectation{}, err
	}
	bidLevels, err := parseNonNegative(fields[2], lineNo, "bid_levels")
	if err != nil {
		return Expectation{}, err
	}
	askLevels, err := parseNonNegative(fields[3], lineNo, "ask_levels")
	if err != nil {
		return Expectation{}, err
	}
	return Expectation{TotalOrders: int(total), BidLevels: int(bidLevels), AskLevels: int(askLevels)}, nil
}

func parseNonNegative(field string, lineNo int, name string) (int64, error) {
	v, err := strconv.ParseInt(field, 10, 64)
	if err != nil {
		return 0, &MalformedInputError{Line: lineNo, Msg: fmt.Sprintf("%s: not an integer: %q", name, field)}
	}
	if v < 0 {
		return 0, &MalformedInputError{Line: lineNo, Msg: fmt.Sprintf("%s: negative value %d", name, v)}
	}
	return v, nil
}

func parseSide(field string, lineNo int) (common.Side, error) {
	switch field {
	case "B":
		return common.Buy, nil
	case "S":
		return common.Sell, nil
	default:
		return 0, &MalformedInputError{Line: lineNo, Msg: fmt.Sprintf("side must be B or S, got %q", field)}
	}
}

func parseOrderType(field string, lineNo int) (common.OrderType, error) {
	switch field {
	case "GoodTillCancel":
		return common.GoodTillCancel, nil
	case "Market":
		return common.Market, nil
	case "FillAndKill":
		return common.FillAndKill, nil
	case "FillOrKill":
		return common.FillOrKill, nil
	default:
		return 0, &MalformedInputError{Line: lineNo, Msg: fmt.Sprintf("unrecognized order type %q", field)}
	}
}
