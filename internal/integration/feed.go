package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	guarderrors "github.com/ducminhle1904/strategy-guard/internal/errors"
	"github.com/ducminhle1904/strategy-guard/pkg/types"
)

// FileFeed is a PortfolioSource read from a JSON document of the form
// {"trades": [...], "equity": [...]}
type FileFeed struct {
	Trades []types.TradeRecord `json:"trades"`
	Equity []float64           `json:"equity"`
}

func (f *FileFeed) ClosedTrades() []types.TradeRecord { return f.Trades }
func (f *FileFeed) EquityCurve() []float64            { return f.Equity }

// LoadFeed reads and validates a feed file
func LoadFeed(path string) (*FileFeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, guarderrors.NewNotFoundError("feed", "LoadFeed", "no feed file at "+path)
		}
		return nil, guarderrors.NewPersistenceError("feed", "LoadFeed", err)
	}
	return ParseFeed(data)
}

// ParseFeed decodes a feed document. Unknown fields, trailing data and
// out-of-range entry confidences are rejected.
func ParseFeed(data []byte) (*FileFeed, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var feed FileFeed
	if err := dec.Decode(&feed); err != nil {
		return nil, guarderrors.WrapError(err, guarderrors.ErrorCategoryValidation, "feed", "ParseFeed")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, guarderrors.NewValidationError("feed", "ParseFeed",
			fmt.Sprintf("unexpected data after the feed document at offset %d", dec.InputOffset()))
	}

	for i, t := range feed.Trades {
		if c, ok := t.Confidence(); ok && (c < 0 || c > 1) {
			return nil, guarderrors.NewValidationError("feed", "ParseFeed",
				fmt.Sprintf("trade %d: entry_confidence %v outside [0, 1]", i, c))
		}
	}
	return &feed, nil
}
