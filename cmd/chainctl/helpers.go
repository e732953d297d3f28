package main

import (
	"fmt"
	"strconv"
	"strings"
)

// strikeLabel prints a strike without trailing zeros.
func strikeLabel(strike float64) string {
	return strconv.FormatFloat(strike, 'f', -1, 64)
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func optMoney(v *float64) string {
	if v == nil {
		return "--"
	}
	return money(*v)
}

// thousands groups digits with commas.
func thousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}
