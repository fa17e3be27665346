package types

// LimitRequest bounds the size of list responses.
type LimitRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

// WindowRequest selects a reporting window in days.
type WindowRequest struct {
	Days int `form:"days" binding:"omitempty,min=1,max=365"`
}

// LimitOr returns the requested limit, def when unset, capped at max.
func (r LimitRequest) LimitOr(def, max int) int {
	switch {
	case r.Limit <= 0:
		return def
	case r.Limit > max:
		return max
	default:
		return r.Limit
	}
}

// DaysOr returns the requested window, def when unset.
func (r WindowRequest) DaysOr(def int) int {
	if r.Days <= 0 {
		return def
	}
	return r.Days
}
