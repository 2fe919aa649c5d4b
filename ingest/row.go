package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lei-rs/midas-go/columnar"
)

// Leading record-type tags on raw OPRA lines.
const (
	tagQuote = "F@"
	tagTrade = "FT"
)

const (
	quoteFields = 15
	tradeFields = 13
)

var (
	// ErrMalformedRecord is returned when a line cannot be reshaped into
	// the fixed-width row layout.
	ErrMalformedRecord = errors.New("ingest: malformed record")

	// ErrUnsupportedRecordType is returned for an unknown leading tag.
	ErrUnsupportedRecordType = errors.New("ingest: unsupported record type")
)

// SymbolExtractionError reports a line too short to carry a symbol.
type SymbolExtractionError struct {
	Line string
}

func (e *SymbolExtractionError) Error() string {
	return fmt.Sprintf("ingest: line has fewer than 6 tokens, no symbol: %q", e.Line)
}

// NormalizeRow reshapes a raw line into the canonical 15-field row used by
// the columnar schema. Quote lines already carry 15 fields and split
// directly. Trade lines carry 13: two blank placeholder fields are
// appended, field 6 swaps with 7, then 7 with 8, and fields 10 and 11 are
// forced to "0" for the quote-only columns trades have no data for.
func NormalizeRow(line string) ([columnar.NumColumns]string, error) {
	var row [columnar.NumColumns]string
	if len(line) < 2 {
		return row, fmt.Errorf("%w: line shorter than record tag", ErrMalformedRecord)
	}
	switch line[:2] {
	case tagQuote:
		return normalizeQuote(line)
	case tagTrade:
		return normalizeTrade(line)
	default:
		return row, fmt.Errorf("%w: %q", ErrUnsupportedRecordType, line[:2])
	}
}

func normalizeQuote(line string) ([columnar.NumColumns]string, error) {
	var row [columnar.NumColumns]string
	fields := strings.Split(line, " ")
	if len(fields) != quoteFields {
		return row, fmt.Errorf("%w: quote has %d fields, want %d", ErrMalformedRecord, len(fields), quoteFields)
	}
	copy(row[:], fields)
	return row, nil
}

func normalizeTrade(line string) ([columnar.NumColumns]string, error) {
	var row [columnar.NumColumns]string
	fields := strings.Split(line, " ")
	if len(fields) != tradeFields {
		return row, fmt.Errorf("%w: trade has %d fields, want %d", ErrMalformedRecord, len(fields), tradeFields)
	}
	fields = append(fields, "", "")
	fields[6], fields[7] = fields[7], fields[6]
	fields[7], fields[8] = fields[8], fields[7]
	fields[10] = "0"
	fields[11] = "0"
	copy(row[:], fields)
	return row, nil
}

// ExtractSymbol returns the routing key for a line: the sixth
// space-delimited token with underscores removed.
func ExtractSymbol(line string) (string, error) {
	fields := strings.SplitN(line, " ", 7)
	if len(fields) < 6 {
		return "", &SymbolExtractionError{Line: line}
	}
	return strings.ReplaceAll(fields[5], "_", ""), nil
}
