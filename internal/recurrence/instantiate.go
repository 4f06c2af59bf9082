package recurrence

import "time"

// Instantiate binds rule to startDate and fills in any missing BY-fields by
// inference, returning an InstantiatedRule whose Rule is guaranteed
// explicit. Inference never overwrites a user-supplied filter, and applying
// it to an already-explicit rule is a no-op (idempotent).
//
// Inference order (load-bearing for the yearly case):
//  1. FREQ=WEEKLY, BYDAY absent -> BYDAY = [weekday(startDate)]
//  2. FREQ=MONTHLY, BYMONTHDAY and BYDAY both absent -> BYMONTHDAY = [day(startDate)]
//  3. FREQ=YEARLY:
//     - BYMONTH set, BYMONTHDAY absent -> BYMONTHDAY = [day(startDate)]
//     - else BYWEEKNO set, BYDAY absent -> BYDAY = [weekday(startDate)]
//     - else BYYEARDAY absent -> BYYEARDAY = [dayOfYear(startDate)]
//  4. FREQ=DAILY requires no inference.
func Instantiate(rule Rule, startDate time.Time) InstantiatedRule {
	return InstantiatedRule{
		Rule:      infer(rule, startDate),
		StartDate: startDate,
	}
}

func infer(rule Rule, startDate time.Time) Rule {
	switch rule.Frequency {
	case Weekly:
		if rule.ByDay == nil {
			rule.ByDay = []time.Weekday{startDate.Weekday()}
		}

	case Monthly:
		if rule.ByMonthDay == nil && rule.ByDay == nil {
			rule.ByMonthDay = []int{startDate.Day()}
		}

	case Yearly:
		switch {
		case rule.ByMonth != nil:
			if rule.ByMonthDay == nil {
				rule.ByMonthDay = []int{startDate.Day()}
			}
		case rule.ByWeekNo != nil:
			if rule.ByDay == nil {
				rule.ByDay = []time.Weekday{startDate.Weekday()}
			}
		case rule.ByYearDay == nil:
			rule.ByYearDay = []int{startDate.YearDay()}
		}
	}

	return rule
}
