package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var banglaDigits = strings.NewReplacer(
	"0", "০", "1", "১", "2", "২", "3", "৩", "4", "৪",
	"5", "৫", "6", "৬", "7", "৭", "8", "৮", "9", "৯",
)

func ToBanglaNum(s string) string {
	return banglaDigits.Replace(s)
}

// GroupThousands renders the amount with comma separators and at most two decimals.
func GroupThousands(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	amount = amount.Round(2)
	intPart := amount.Truncate(0).String()
	frac := amount.Sub(amount.Truncate(0))

	var sb strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}

	out := sign + sb.String()
	if !frac.IsZero() {
		out += strings.TrimPrefix(frac.String(), "0")
	}
	return out
}

func FormatCurrency(amount decimal.Decimal) string {
	return "৳" + ToBanglaNum(GroupThousands(amount))
}

// FormatCountdown renders a duration as HH:MM:SS in Bangla digits.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return ToBanglaNum(fmt.Sprintf("%02d:%02d:%02d", h, m, s))
}
