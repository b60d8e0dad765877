package engine

import (
	"fmt"
	"time"

	"github.com/casebinder/casebinder/internal/core/domain"
)

// EvaluateDeadline computes the filing-window status for one profile. Pure
// function of the filing context, the catalog deadline config and today's
// date; safe from any goroutine.
//
// Past the deadline with no override the result is blocked. A supplied
// override reason demotes blocked to approaching, never to ok: the margin is
// gone, and the override stays visible in the result and downstream audit
// output instead of being silently absorbed.
func EvaluateDeadline(fc domain.FilingContext, cfg domain.DeadlineConfig, today time.Time) domain.DeadlineResult {
	res := domain.DeadlineResult{
		Status:   domain.DeadlineOK,
		Citation: cfg.Citation,
	}

	basis := basisDate(fc, cfg.Basis)
	if basis == nil {
		res.Reason = fmt.Sprintf("no %s date supplied; the %d-day window (%s) cannot be computed yet",
			cfg.Basis, cfg.Days, cfg.Citation.Reference)
		return res
	}

	deadline := truncateToDay(*basis).AddDate(0, 0, cfg.Days)
	res.Deadline = &deadline

	day := truncateToDay(today)
	remaining := int(deadline.Sub(day).Hours() / 24)

	switch {
	case day.After(deadline):
		overdue := -remaining
		if fc.DeadlineOverrideReason == "" {
			res.Status = domain.DeadlineBlocked
			res.Reason = fmt.Sprintf("filing deadline %s (%s) passed %d day(s) ago",
				deadline.Format("2006-01-02"), cfg.Citation.Reference, overdue)
			return res
		}
		res.Status = domain.DeadlineApproaching
		res.OverrideApplied = true
		res.OverrideReason = fc.DeadlineOverrideReason
		res.Reason = fmt.Sprintf("deadline %s (%s) passed %d day(s) ago; override recorded: %s",
			deadline.Format("2006-01-02"), cfg.Citation.Reference, overdue, fc.DeadlineOverrideReason)
	case remaining <= cfg.ApproachingLeadDays:
		res.Status = domain.DeadlineApproaching
		res.Reason = fmt.Sprintf("filing deadline %s (%s) is %d day(s) away",
			deadline.Format("2006-01-02"), cfg.Citation.Reference, remaining)
	default:
		res.Reason = fmt.Sprintf("filing deadline %s (%s) is %d day(s) away",
			deadline.Format("2006-01-02"), cfg.Citation.Reference, remaining)
	}
	return res
}

func basisDate(fc domain.FilingContext, basis domain.DeadlineBasis) *time.Time {
	switch basis {
	case domain.BasisDecision:
		return fc.DecisionDate
	case domain.BasisHearing:
		return fc.HearingDate
	case domain.BasisService:
		return fc.ServiceDate
	default:
		return nil
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
