// Package parse implements the deterministic structured-format parser.
// It is attempted before the AI extractor because it is zero-cost; its
// failure triggers the AI fallback rather than an error to the user.
package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rsawant/fieldledger/internal/common"
	"github.com/rsawant/fieldledger/internal/model"
)

var integerPattern = regexp.MustCompile(`\d+`)

// ParseStructured parses newline-delimited "Label: value" input carrying at
// least Client, Location, Orders, Amount, and Remarks lines. Labels match by
// substring, case-sensitive. Any missing label or unparsable number returns
// common.ErrParseFailure wrapped with detail.
func ParseStructured(text string) (model.ParsedEntry, error) {
	lines := strings.Split(text, "\n")

	client, err := labelValue(lines, "Client")
	if err != nil {
		return model.ParsedEntry{}, err
	}
	location, err := labelValue(lines, "Location")
	if err != nil {
		return model.ParsedEntry{}, err
	}
	ordersRaw, err := labelValue(lines, "Orders")
	if err != nil {
		return model.ParsedEntry{}, err
	}
	amountRaw, err := labelValue(lines, "Amount")
	if err != nil {
		return model.ParsedEntry{}, err
	}
	remarks, err := labelValue(lines, "Remarks")
	if err != nil {
		return model.ParsedEntry{}, err
	}

	orders, err := ParseOrders(ordersRaw)
	if err != nil {
		return model.ParsedEntry{}, err
	}

	amount, err := ParseAmount(amountRaw)
	if err != nil {
		return model.ParsedEntry{}, err
	}

	return model.ParsedEntry{
		Client:   &client,
		Location: &location,
		Orders:   &orders,
		Amount:   &amount,
		Remarks:  &remarks,
	}, nil
}

// labelValue finds the first line containing label and returns everything
// after its first colon, trimmed.
func labelValue(lines []string, label string) (string, error) {
	for _, line := range lines {
		if !strings.Contains(line, label) {
			continue
		}
		_, value, found := strings.Cut(line, ":")
		if !found {
			return "", fmt.Errorf("%w: %s line has no value", common.ErrParseFailure, label)
		}
		return strings.TrimSpace(value), nil
	}
	return "", fmt.Errorf("%w: missing %s line", common.ErrParseFailure, label)
}

// ParseOrders extracts an order count from free text. When the value joins
// several quantities ("3 boxes + 5 bottles", "10 and 5", "3, 4, 5") the
// integers are summed; otherwise the first integer wins.
func ParseOrders(value string) (int, error) {
	matches := integerPattern.FindAllString(value, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("%w: no quantity in orders value %q", common.ErrParseFailure, value)
	}

	multi := strings.Contains(value, "+") ||
		strings.Contains(value, ",") ||
		containsWord(value, "and")

	if !multi {
		n, err := strconv.Atoi(matches[0])
		if err != nil {
			return 0, fmt.Errorf("%w: bad orders value %q", common.ErrParseFailure, value)
		}
		return n, nil
	}

	total := 0
	for _, m := range matches {
		n, err := strconv.Atoi(m)
		if err != nil {
			return 0, fmt.Errorf("%w: bad orders value %q", common.ErrParseFailure, value)
		}
		total += n
	}
	return total, nil
}

// ParseAmount strips the currency symbol and thousands separators and
// parses the remainder as an integer.
func ParseAmount(value string) (int, error) {
	cleaned := strings.NewReplacer("₹", "", "Rs.", "", "Rs", "", ",", "", " ", "").Replace(value)
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, fmt.Errorf("%w: bad amount value %q", common.ErrParseFailure, value)
	}
	return n, nil
}

func containsWord(s, word string) bool {
	for _, f := range strings.Fields(strings.ToLower(s)) {
		if f == word {
			return true
		}
	}
	return false
}
