package types

import "fmt"

// Money formats an amount with two decimals and a leading dollar sign
func Money(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("$%.2f", v)
}
