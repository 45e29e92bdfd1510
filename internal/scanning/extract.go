package scanning

import (
	"errors"
	"regexp"
	"strconv"
)

// ErrNoPriceFound means the recognized text contained no usable monetary
// amount. Never substituted with a zero default.
var ErrNoPriceFound = errors.New("no price detected in the receipt text")

// PriceMatch is the outcome of running recognized text through the pattern list
type PriceMatch struct {
	Amount  float64
	Pattern string
}

// pricePattern pairs a compiled matcher with a name for diagnostics. The first
// capture group must be the numeric amount.
type pricePattern struct {
	name string
	re   *regexp.Regexp
}

// pricePatterns is evaluated in order, most to least specific, short-circuiting
// on the first match. The bare-number fallback matches almost anything and is a
// deliberate low-confidence last resort.
var pricePatterns = []pricePattern{
	{"currency-prefixed", regexp.MustCompile(`(?i)RM\s*(\d+\.?\d*)`)},
	{"currency-suffixed", regexp.MustCompile(`(?i)(\d+\.?\d*)\s*RM`)},
	{"labeled-total", regexp.MustCompile(`(?i)Total\s*:?\s*RM\s*(\d+\.?\d*)`)},
	{"labeled-amount", regexp.MustCompile(`(?i)Total\s*:?\s*(\d+\.?\d*)`)},
	{"bare-number", regexp.MustCompile(`(\d+\.?\d*)`)},
}

// ExtractPrice returns the first monetary amount matched by the pattern list.
// A matched amount of zero counts as no detection; later patterns are not
// consulted once one has matched.
func ExtractPrice(text string) (*PriceMatch, error) {
	for _, p := range pricePatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		amount, err := strconv.ParseFloat(m[1], 64)
		if err != nil || amount == 0 {
			return nil, ErrNoPriceFound
		}
		return &PriceMatch{Amount: amount, Pattern: p.name}, nil
	}
	return nil, ErrNoPriceFound
}
