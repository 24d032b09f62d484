package price

import (
	"fmt"
	"strconv"
	"strings"
)

const eok = 100_000_000 // 1억 in won
const man = 10_000      // 1만 in won

// ParseToWon converts a display price string like "3억 5,000" into won.
// The part before "억" counts hundred-millions, the remainder counts
// ten-thousands. Returns nil for empty, "-" or unparseable input.
func ParseToWon(display string) *int64 {
	s := strings.TrimSpace(display)
	if s == "" || s == "-" {
		return nil
	}

	var total int64
	if idx := strings.Index(s, "억"); idx >= 0 {
		eokPart := strings.TrimSpace(s[:idx])
		n, err := parseNumber(eokPart)
		if err != nil {
			return nil
		}
		total += n * eok
		s = strings.TrimSpace(s[idx+len("억"):])
	}

	if s != "" {
		n, err := parseNumber(s)
		if err != nil {
			return nil
		}
		total += n * man
	}

	if total == 0 {
		return nil
	}
	return &total
}

// FormatWon renders won back into the "N억 M,MMM" display form.
func FormatWon(won int64) string {
	if won <= 0 {
		return "-"
	}

	eokPart := won / eok
	manPart := (won % eok) / man

	switch {
	case eokPart > 0 && manPart > 0:
		return fmt.Sprintf("%d억 %s", eokPart, groupDigits(manPart))
	case eokPart > 0:
		return fmt.Sprintf("%d억", eokPart)
	default:
		return groupDigits(manPart)
	}
}

func parseNumber(s string) (int64, error) {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

// groupDigits inserts thousands separators into a positive number.
func groupDigits(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	first := len(s) % 3
	if first > 0 {
		b.WriteString(s[:first])
	}
	for i := first; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteString(",")
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
