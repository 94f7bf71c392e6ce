package service

// RejectReason identifies which limit stopped a check-in. A rejection is a
// normal outcome, not an error; the handler picks the reply wording from it.
type RejectReason int

const (
	// RejectNone means the increment may be committed.
	RejectNone RejectReason = iota
	// RejectDailyLimit means the daily cap would be exceeded.
	RejectDailyLimit
	// RejectMonthlyLimit means the monthly cap would be exceeded.
	RejectMonthlyLimit
)

// String returns the reason's name for logging.
func (r RejectReason) String() string {
	switch r {
	case RejectNone:
		return "none"
	case RejectDailyLimit:
		return "daily_limit"
	case RejectMonthlyLimit:
		return "monthly_limit"
	default:
		return "unknown"
	}
}

// CheckQuota decides whether an increment of amount may be committed given
// the user's existing count for the day and the month total excluding that
// day. A zero max means unlimited. The daily and monthly checks are
// independent; either can reject on its own.
func CheckQuota(existingDaily, monthExclToday, amount, dailyMax, monthlyMax int) RejectReason {
	if dailyMax > 0 && existingDaily+amount > dailyMax {
		return RejectDailyLimit
	}
	if monthlyMax > 0 && monthExclToday+existingDaily+amount > monthlyMax {
		return RejectMonthlyLimit
	}
	return RejectNone
}
