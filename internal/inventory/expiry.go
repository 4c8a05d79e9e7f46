package inventory

import "github.com/vbonduro/pantry/internal/domain"

// OpenedExpiry returns the expiry date of an item opened today. Opening
// halves the remaining shelf life, with at least one day left. Items that
// expire tomorrow or earlier keep their date.
func OpenedExpiry(expiry, today domain.Date) domain.Date {
	daysLeft := today.DaysUntil(expiry)
	if daysLeft <= 1 {
		return expiry
	}
	return today.AddDays(max(1, daysLeft/2))
}
