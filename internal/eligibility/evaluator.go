// Package eligibility runs the config-declared predicate chains for each
// federal program. Every check in a chain runs even after a failure, so
// the reasons list is complete and ordered the way the bundle declares.
package eligibility

import (
	"time"

	"maplecase/internal/bundle"
	"maplecase/pkg/domain"
)

// Evaluator assesses program eligibility against a rule bundle.
type Evaluator struct{}

// New returns an eligibility evaluator.
func New() *Evaluator {
	return &Evaluator{}
}

// Evaluate runs every program chain in the bundle's declared order.
func (e *Evaluator) Evaluate(profile *domain.CandidateProfile, b *bundle.Bundle, now time.Time) []domain.ProgramEvaluation {
	out := make([]domain.ProgramEvaluation, 0, len(b.ProgramRules.Programs))
	for _, program := range b.ProgramRules.Programs {
		out = append(out, e.evaluateProgram(profile, b, program, now))
	}
	return out
}

// Primary returns the first eligible program in declared order. Declared
// order is the recommendation precedence; CRS totals do not vary by
// program so they cannot break ties.
func Primary(evals []domain.ProgramEvaluation) (domain.ProgramCode, bool) {
	for _, ev := range evals {
		if ev.Eligible {
			return ev.Program, true
		}
	}
	return "", false
}

func (e *Evaluator) evaluateProgram(profile *domain.CandidateProfile, b *bundle.Bundle, program bundle.ProgramRule, now time.Time) domain.ProgramEvaluation {
	result := domain.ProgramEvaluation{Program: program.Code, Eligible: true}
	for _, check := range program.Checks {
		reason, ok := e.runCheck(profile, b, check, now)
		if ok {
			continue
		}
		result.Eligible = false
		result.Reasons = append(result.Reasons, reason)
		result.RuleRefs = append(result.RuleRefs, check.RuleRef)
	}
	return result
}

// runCheck returns the reason to record when the check fails.
func (e *Evaluator) runCheck(profile *domain.CandidateProfile, b *bundle.Bundle, check bundle.ProgramCheck, now time.Time) (domain.ReasonCode, bool) {
	switch check.Type {
	case bundle.CheckLanguageMinimum:
		return check.Reason, e.checkLanguage(profile, b.LanguageMinima.Minima[check.MinimaRef], now)
	case bundle.CheckLanguageByTEER:
		return check.Reason, e.checkLanguageByTEER(profile, b, check, now)
	case bundle.CheckSkilledExperience:
		return e.checkExperience(profile, b.WorkExperience.Rules[check.ExperienceRef], check, now)
	case bundle.CheckEducationMinimum:
		return check.Reason, e.checkEducation(profile, check.MinLevel)
	case bundle.CheckProofOfFunds:
		return e.checkFunds(profile, b, check)
	case bundle.CheckJobOfferOrCert:
		return check.Reason, e.checkJobOfferOrCert(profile, b)
	}
	// Unknown check types are rejected at bundle load.
	return check.Reason, false
}

func (e *Evaluator) checkLanguage(profile *domain.CandidateProfile, minimum bundle.LanguageMinimum, now time.Time) bool {
	test, ok := profile.FirstOfficialLanguage(now)
	if !ok {
		return false
	}
	return minimum.Meets(test.CLB)
}

// checkLanguageByTEER applies the minima of the TEER band holding the
// most qualifying months, the higher band winning ties.
func (e *Evaluator) checkLanguageByTEER(profile *domain.CandidateProfile, b *bundle.Bundle, check bundle.ProgramCheck, now time.Time) bool {
	rule := b.WorkExperience.Rules[check.ExperienceRef]

	high := rule
	high.MinTEER, high.MaxTEER = 0, 1
	low := rule
	low.MinTEER, low.MaxTEER = 2, 3

	ref := check.MinimaRefTEER01
	if qualifyingMonths(profile.WorkHistory, low, now) > qualifyingMonths(profile.WorkHistory, high, now) {
		ref = check.MinimaRefTEER23
	}
	return e.checkLanguage(profile, b.LanguageMinima.Minima[ref], now)
}

func (e *Evaluator) checkExperience(profile *domain.CandidateProfile, rule bundle.ExperienceRule, check bundle.ProgramCheck, now time.Time) (domain.ReasonCode, bool) {
	months := qualifyingMonths(profile.WorkHistory, rule, now)
	if rule.Continuous {
		months = maxContinuousMonths(profile.WorkHistory, rule, now)
	}
	if months >= rule.MinMonths {
		return check.Reason, true
	}

	// A Canadian-only shortfall that foreign experience would cover gets
	// its own reason so callers can tell the two apart.
	if rule.Canadian && check.ReasonNotCanadian != "" {
		anywhere := rule
		anywhere.Canadian = false
		if qualifyingMonths(profile.WorkHistory, anywhere, now) >= rule.MinMonths {
			return check.ReasonNotCanadian, false
		}
	}
	return check.Reason, false
}

func (e *Evaluator) checkEducation(profile *domain.CandidateProfile, minLevel domain.EducationLevel) bool {
	best, ok := profile.HighestEducation()
	if !ok {
		return false
	}
	return best.Level.Rank() >= minLevel.Rank()
}

func (e *Evaluator) checkFunds(profile *domain.CandidateProfile, b *bundle.Bundle, check bundle.ProgramCheck) (domain.ReasonCode, bool) {
	if check.ExemptWithJobOffer && hasSupportedOffer(profile, b.ArrangedEmployment) {
		return check.Reason, true
	}

	latest, ok := profile.LatestProofOfFunds()
	if !ok {
		return check.Reason, false
	}
	// Intake normalizes to CAD; anything else fails closed.
	if latest.Currency != "CAD" {
		return domain.ReasonFundsCurrencyUnnormalized, false
	}
	return check.Reason, latest.AmountCents >= b.ProofOfFunds.RequiredFunds(profile.FamilySize)
}

func (e *Evaluator) checkJobOfferOrCert(profile *domain.CandidateProfile, b *bundle.Bundle) bool {
	return profile.CertificateOfQualification || hasSupportedOffer(profile, b.ArrangedEmployment)
}

// FundsRequired reports whether the program's chain includes a proof of
// funds check the profile is not exempt from. The document matrix uses
// this to decide whether the funds statement is required.
func FundsRequired(profile *domain.CandidateProfile, b *bundle.Bundle, program domain.ProgramCode) bool {
	for _, rule := range b.ProgramRules.Programs {
		if rule.Code != program {
			continue
		}
		for _, check := range rule.Checks {
			if check.Type != bundle.CheckProofOfFunds {
				continue
			}
			if check.ExemptWithJobOffer && hasSupportedOffer(profile, b.ArrangedEmployment) {
				return false
			}
			return true
		}
	}
	return false
}

func hasSupportedOffer(profile *domain.CandidateProfile, rules bundle.ArrangedEmployment) bool {
	for _, offer := range profile.JobOffers {
		if rules.FullTimeRequired && !offer.FullTime {
			continue
		}
		if offer.DurationMonths >= rules.MinDurationMonths {
			return true
		}
	}
	return false
}

// qualifyingMonths counts paid months matching the rule's TEER band and
// location inside the recency window. A rule that is not Canadian-only
// counts experience from anywhere.
func qualifyingMonths(history []domain.WorkExperience, rule bundle.ExperienceRule, now time.Time) int {
	windowStart := now.AddDate(-rule.WindowYears, 0, 0)
	total := 0
	for _, w := range history {
		if !periodQualifies(w, rule) {
			continue
		}
		total += w.MonthsWithin(windowStart, now)
	}
	return total
}

// maxContinuousMonths returns the longest single qualifying period, for
// rules requiring continuous experience.
func maxContinuousMonths(history []domain.WorkExperience, rule bundle.ExperienceRule, now time.Time) int {
	windowStart := now.AddDate(-rule.WindowYears, 0, 0)
	longest := 0
	for _, w := range history {
		if !periodQualifies(w, rule) {
			continue
		}
		longest = max(longest, w.MonthsWithin(windowStart, now))
	}
	return longest
}

func periodQualifies(w domain.WorkExperience, rule bundle.ExperienceRule) bool {
	if w.TEER < rule.MinTEER || w.TEER > rule.MaxTEER {
		return false
	}
	if rule.Canadian && !w.Canadian {
		return false
	}
	return true
}
