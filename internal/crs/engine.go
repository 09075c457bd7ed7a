// Package crs scores profiles against the Comprehensive Ranking System
// tables of a rule bundle. Scoring is pure: the same profile, bundle, and
// reference time always produce the same breakdown.
package crs

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"maplecase/internal/bundle"
	"maplecase/pkg/domain"
)

// inputs holds the derived values every factor reads, computed once per
// scoring run.
type inputs struct {
	profile    *domain.CandidateProfile
	bundle     *bundle.Bundle
	now        time.Time
	withSpouse bool

	age           int
	education     domain.EducationCredential
	hasEducation  bool
	firstLang     domain.LanguageTest
	hasFirstLang  bool
	secondLang    domain.LanguageTest
	hasSecondLang bool
	canadianYears int
	foreignYears  int
}

// Engine evaluates the factor set in the order the bundle declares.
type Engine struct{}

// New returns a CRS engine.
func New() *Engine {
	return &Engine{}
}

// Score produces the full CRS breakdown. The total is always the sum of
// the returned contributions; spouse factors award zero when the profile
// has no accompanying spouse, and a with-spouse marital status without a
// spouse profile is flagged rather than failed.
func (e *Engine) Score(profile *domain.CandidateProfile, b *bundle.Bundle, now time.Time) domain.CRSResult {
	in := deriveInputs(profile, b, now)

	var result domain.CRSResult
	if profile.MaritalStatus.WithSpouse() && profile.Spouse == nil {
		result.Reasons = append(result.Reasons, domain.ReasonSpouseRequired)
	}

	caps := newTransferabilityCaps(b.CRSTransferability)
	for _, code := range b.Manifest.CRSFactorOrder {
		contribution := e.scoreFactor(code, in, caps)
		result.Contributions = append(result.Contributions, contribution)
		result.Total += contribution.PointsAwarded
	}
	return result
}

func deriveInputs(profile *domain.CandidateProfile, b *bundle.Bundle, now time.Time) inputs {
	in := inputs{
		profile: profile,
		bundle:  b,
		now:     now,
		// With-spouse tables need actual spouse data; a with-spouse
		// status without it is flagged in Score and scored single.
		withSpouse: profile.MaritalStatus.WithSpouse() && profile.Spouse != nil,
		age:        profile.AgeAt(now),
	}
	in.education, in.hasEducation = profile.HighestEducation()
	in.firstLang, in.hasFirstLang = profile.FirstOfficialLanguage(now)
	in.secondLang, in.hasSecondLang = profile.SecondOfficialLanguage(now)
	in.canadianYears = profile.SkilledExperienceMonths(now, 10, true) / 12
	in.foreignYears = profile.SkilledExperienceMonths(now, 10, false) / 12
	return in
}

func (e *Engine) scoreFactor(code string, in inputs, caps *transferabilityCaps) domain.FactorContribution {
	switch code {
	case domain.FactorCoreAge:
		return scoreAge(in)
	case domain.FactorCoreEducation:
		return scoreEducation(in)
	case domain.FactorCoreFirstLanguage:
		return scoreFirstLanguage(in)
	case domain.FactorCoreSecondLanguage:
		return scoreSecondLanguage(in)
	case domain.FactorCoreCanadianExperience:
		return scoreCanadianExperience(in)
	case domain.FactorSpouseEducation:
		return scoreSpouseEducation(in)
	case domain.FactorSpouseLanguage:
		return scoreSpouseLanguage(in)
	case domain.FactorSpouseCanadianExperience:
		return scoreSpouseExperience(in)
	case domain.FactorTransferEduLanguage:
		return caps.apply(scoreTransferEduLanguage(in))
	case domain.FactorTransferEduCanadianWork:
		return caps.apply(scoreTransferEduCanadianWork(in))
	case domain.FactorTransferForeignLanguage:
		return caps.apply(scoreTransferForeignLanguage(in))
	case domain.FactorTransferForeignCanadian:
		return caps.apply(scoreTransferForeignCanadian(in))
	case domain.FactorTransferCertLanguage:
		return caps.apply(scoreTransferCertificate(in))
	case domain.FactorAdditionalNomination:
		return scoreNomination(in)
	case domain.FactorAdditionalJobOffer:
		return scoreArrangedEmployment(in)
	case domain.FactorAdditionalStudy:
		return scoreCanadianStudy(in)
	case domain.FactorAdditionalFrench:
		return scoreFrenchBonus(in)
	case domain.FactorAdditionalSibling:
		return scoreSibling(in)
	}
	// Unknown codes are rejected at bundle load; reaching here is a bug.
	return domain.FactorContribution{FactorCode: code, RuleReference: "unknown"}
}

func contribution(code string, awarded, ceiling int, ref string, inputsUsed map[string]string) domain.FactorContribution {
	return domain.FactorContribution{
		FactorCode:     code,
		PointsAwarded:  awarded,
		PointsMax:      ceiling,
		InputsUsed:     inputsUsed,
		RuleReference:  ref,
		ExplanationKey: "crs." + code,
	}
}

func scoreAge(in inputs) domain.FactorContribution {
	awarded := in.bundle.CRSCore.AgePoints(in.age, in.withSpouse)
	ceiling := 0
	for _, row := range in.bundle.CRSCore.Age {
		ceiling = max(ceiling, pick(row.Single, row.WithSpouse, in.withSpouse))
	}
	return contribution(domain.FactorCoreAge, awarded, ceiling, "crs_core.age", map[string]string{
		"age": strconv.Itoa(in.age),
	})
}

func scoreEducation(in inputs) domain.FactorContribution {
	awarded := 0
	level := ""
	if in.hasEducation {
		awarded = in.bundle.CRSCore.EducationPoints(in.education.Level, in.withSpouse)
		level = string(in.education.Level)
	}
	ceiling := 0
	for _, row := range in.bundle.CRSCore.Education {
		ceiling = max(ceiling, pick(row.Single, row.WithSpouse, in.withSpouse))
	}
	return contribution(domain.FactorCoreEducation, awarded, ceiling, "crs_core.education", map[string]string{
		"level": level,
	})
}

func scoreFirstLanguage(in inputs) domain.FactorContribution {
	awarded := 0
	used := map[string]string{}
	if in.hasFirstLang {
		clb := in.firstLang.CLB
		for ability, level := range map[string]int{
			"reading": clb.Reading, "writing": clb.Writing,
			"listening": clb.Listening, "speaking": clb.Speaking,
		} {
			awarded += in.bundle.CRSCore.FirstLanguagePoints(level, in.withSpouse)
			used["clb_"+ability] = strconv.Itoa(level)
		}
		used["language"] = string(in.firstLang.Language)
	}
	perAbility := 0
	for _, row := range in.bundle.CRSCore.FirstLanguage {
		perAbility = max(perAbility, pick(row.Single, row.WithSpouse, in.withSpouse))
	}
	return contribution(domain.FactorCoreFirstLanguage, awarded, perAbility*4, "crs_core.first_language", used)
}

func scoreSecondLanguage(in inputs) domain.FactorContribution {
	awarded := 0
	used := map[string]string{}
	if in.hasSecondLang {
		clb := in.secondLang.CLB
		for _, level := range []int{clb.Reading, clb.Writing, clb.Listening, clb.Speaking} {
			awarded += in.bundle.CRSCore.SecondLanguagePoints(level)
		}
		if limit := in.bundle.CRSCore.SecondLanguageCap; awarded > limit {
			awarded = limit
		}
		used["language"] = string(in.secondLang.Language)
		used["clb_min"] = strconv.Itoa(clb.Min())
	}
	return contribution(domain.FactorCoreSecondLanguage, awarded, in.bundle.CRSCore.SecondLanguageCap,
		"crs_core.second_language", used)
}

func scoreCanadianExperience(in inputs) domain.FactorContribution {
	awarded := in.bundle.CRSCore.CanadianExperiencePoints(in.canadianYears, in.withSpouse)
	ceiling := 0
	for _, row := range in.bundle.CRSCore.CanadianExperience {
		ceiling = max(ceiling, pick(row.Single, row.WithSpouse, in.withSpouse))
	}
	return contribution(domain.FactorCoreCanadianExperience, awarded, ceiling, "crs_core.canadian_experience",
		map[string]string{"years": strconv.Itoa(in.canadianYears)})
}

func scoreSpouseEducation(in inputs) domain.FactorContribution {
	awarded := 0
	used := map[string]string{}
	if in.withSpouse {
		if best, ok := highestSpouseEducation(in.profile.Spouse); ok {
			awarded = in.bundle.CRSSpouse.EducationPoints(best.Level)
			used["level"] = string(best.Level)
		}
	}
	ceiling := 0
	for _, row := range in.bundle.CRSSpouse.Education {
		ceiling = max(ceiling, row.Points)
	}
	return contribution(domain.FactorSpouseEducation, awarded, ceiling, "crs_spouse.education", used)
}

func scoreSpouseLanguage(in inputs) domain.FactorContribution {
	awarded := 0
	used := map[string]string{}
	if in.withSpouse {
		if test, ok := bestSpouseTest(in.profile.Spouse, in.now); ok {
			clb := test.CLB
			for _, level := range []int{clb.Reading, clb.Writing, clb.Listening, clb.Speaking} {
				awarded += in.bundle.CRSSpouse.LanguagePoints(level)
			}
			used["language"] = string(test.Language)
			used["clb_min"] = strconv.Itoa(clb.Min())
		}
	}
	perAbility := 0
	for _, row := range in.bundle.CRSSpouse.Language {
		perAbility = max(perAbility, row.Points)
	}
	return contribution(domain.FactorSpouseLanguage, awarded, perAbility*4, "crs_spouse.language", used)
}

func scoreSpouseExperience(in inputs) domain.FactorContribution {
	awarded := 0
	used := map[string]string{}
	if in.withSpouse {
		years := spouseCanadianYears(in.profile.Spouse, in.now)
		awarded = in.bundle.CRSSpouse.CanadianExperiencePoints(years)
		used["years"] = strconv.Itoa(years)
	}
	ceiling := 0
	for _, row := range in.bundle.CRSSpouse.CanadianExperience {
		ceiling = max(ceiling, row.Points)
	}
	return contribution(domain.FactorSpouseCanadianExperience, awarded, ceiling, "crs_spouse.canadian_experience", used)
}

func scoreTransferEduLanguage(in inputs) domain.FactorContribution {
	awarded := 0
	used := map[string]string{}
	if in.hasEducation && in.hasFirstLang {
		awarded = in.bundle.CRSTransferability.EducationLanguagePoints(in.education.Level, in.firstLang.CLB.Min())
		used["level"] = string(in.education.Level)
		used["clb_min"] = strconv.Itoa(in.firstLang.CLB.Min())
	}
	return contribution(domain.FactorTransferEduLanguage, awarded, in.bundle.CRSTransferability.SubfactorCap,
		"crs_transferability.education_language", used)
}

func scoreTransferEduCanadianWork(in inputs) domain.FactorContribution {
	awarded := 0
	used := map[string]string{}
	if in.hasEducation {
		awarded = in.bundle.CRSTransferability.EducationCanadianWorkPoints(in.education.Level, in.canadianYears)
		used["level"] = string(in.education.Level)
		used["canadian_years"] = strconv.Itoa(in.canadianYears)
	}
	return contribution(domain.FactorTransferEduCanadianWork, awarded, in.bundle.CRSTransferability.SubfactorCap,
		"crs_transferability.education_canadian_work", used)
}

func scoreTransferForeignLanguage(in inputs) domain.FactorContribution {
	awarded := 0
	used := map[string]string{"foreign_years": strconv.Itoa(in.foreignYears)}
	if in.hasFirstLang {
		awarded = in.bundle.CRSTransferability.ForeignWorkLanguagePoints(in.foreignYears, in.firstLang.CLB.Min())
		used["clb_min"] = strconv.Itoa(in.firstLang.CLB.Min())
	}
	return contribution(domain.FactorTransferForeignLanguage, awarded, in.bundle.CRSTransferability.SubfactorCap,
		"crs_transferability.foreign_work_language", used)
}

func scoreTransferForeignCanadian(in inputs) domain.FactorContribution {
	awarded := in.bundle.CRSTransferability.ForeignWorkCanadianWorkPoints(in.foreignYears, in.canadianYears)
	return contribution(domain.FactorTransferForeignCanadian, awarded, in.bundle.CRSTransferability.SubfactorCap,
		"crs_transferability.foreign_work_canadian_work", map[string]string{
			"foreign_years":  strconv.Itoa(in.foreignYears),
			"canadian_years": strconv.Itoa(in.canadianYears),
		})
}

func scoreTransferCertificate(in inputs) domain.FactorContribution {
	awarded := 0
	used := map[string]string{}
	if in.profile.CertificateOfQualification && in.hasFirstLang {
		awarded = in.bundle.CRSTransferability.CertificateLanguagePoints(in.firstLang.CLB.Min())
		used["clb_min"] = strconv.Itoa(in.firstLang.CLB.Min())
	}
	return contribution(domain.FactorTransferCertLanguage, awarded, in.bundle.CRSTransferability.SubfactorCap,
		"crs_transferability.certificate_language", used)
}

func scoreNomination(in inputs) domain.FactorContribution {
	awarded := 0
	if in.profile.ProvincialNomination {
		awarded = in.bundle.CRSAdditional.ProvincialNomination
	}
	return contribution(domain.FactorAdditionalNomination, awarded, in.bundle.CRSAdditional.ProvincialNomination,
		"crs_additional.provincial_nomination", nil)
}

func scoreArrangedEmployment(in inputs) domain.FactorContribution {
	rules := in.bundle.ArrangedEmployment
	best := 0
	used := map[string]string{}
	for _, offer := range in.profile.JobOffers {
		if !offerSupported(offer, rules) {
			continue
		}
		points := in.bundle.CRSAdditional.ArrangedEmploymentPoints(offer.TEER, isMajorGroup00(offer.NOC))
		if points > best {
			best = points
			used["noc"] = offer.NOC
			used["teer"] = strconv.Itoa(offer.TEER)
		}
	}
	ceiling := 0
	for _, row := range in.bundle.CRSAdditional.ArrangedEmployment {
		ceiling = max(ceiling, row.Points)
	}
	return contribution(domain.FactorAdditionalJobOffer, best, ceiling, "crs_additional.arranged_employment", used)
}

func scoreCanadianStudy(in inputs) domain.FactorContribution {
	years := 0
	for _, cred := range in.profile.Education {
		if cred.Canadian && cred.DurationYears > years {
			years = cred.DurationYears
		}
	}
	awarded := in.bundle.CRSAdditional.CanadianStudyPoints(years)
	ceiling := 0
	for _, row := range in.bundle.CRSAdditional.CanadianStudy {
		ceiling = max(ceiling, row.Points)
	}
	return contribution(domain.FactorAdditionalStudy, awarded, ceiling, "crs_additional.canadian_study",
		map[string]string{"years": strconv.Itoa(years)})
}

func scoreFrenchBonus(in inputs) domain.FactorContribution {
	frenchCLB, englishCLB := 0, 0
	if test, ok := bestLanguageTest(in.profile.LanguageTests, domain.LanguageFrench, in.now); ok {
		frenchCLB = test.CLB.Min()
	}
	if test, ok := bestLanguageTest(in.profile.LanguageTests, domain.LanguageEnglish, in.now); ok {
		englishCLB = test.CLB.Min()
	}
	awarded := in.bundle.CRSAdditional.FrenchBonusPoints(frenchCLB, englishCLB)
	ceiling := 0
	for _, row := range in.bundle.CRSAdditional.FrenchBonus {
		ceiling = max(ceiling, row.Points)
	}
	return contribution(domain.FactorAdditionalFrench, awarded, ceiling, "crs_additional.french_bonus",
		map[string]string{
			"french_clb_min":  strconv.Itoa(frenchCLB),
			"english_clb_min": strconv.Itoa(englishCLB),
		})
}

func scoreSibling(in inputs) domain.FactorContribution {
	awarded := 0
	if in.profile.SiblingInCanada {
		awarded = in.bundle.CRSAdditional.SiblingInCanada
	}
	return contribution(domain.FactorAdditionalSibling, awarded, in.bundle.CRSAdditional.SiblingInCanada,
		"crs_additional.sibling_in_canada", nil)
}

func offerSupported(offer domain.JobOffer, rules bundle.ArrangedEmployment) bool {
	if rules.FullTimeRequired && !offer.FullTime {
		return false
	}
	return offer.DurationMonths >= rules.MinDurationMonths
}

func isMajorGroup00(noc string) bool {
	return strings.HasPrefix(noc, "00")
}

func highestSpouseEducation(spouse *domain.SpouseProfile) (domain.EducationCredential, bool) {
	var best domain.EducationCredential
	found := false
	for _, cred := range spouse.Education {
		if !found || cred.Level.Rank() > best.Level.Rank() {
			best = cred
			found = true
		}
	}
	return best, found
}

func bestSpouseTest(spouse *domain.SpouseProfile, now time.Time) (domain.LanguageTest, bool) {
	var best domain.LanguageTest
	found := false
	for _, t := range spouse.LanguageTests {
		if !t.ValidAt(now) {
			continue
		}
		if !found || t.CLB.Min() > best.CLB.Min() {
			best = t
			found = true
		}
	}
	return best, found
}

func bestLanguageTest(tests []domain.LanguageTest, lang domain.Language, now time.Time) (domain.LanguageTest, bool) {
	var best domain.LanguageTest
	found := false
	for _, t := range tests {
		if t.Language != lang || !t.ValidAt(now) {
			continue
		}
		if !found || t.CLB.Min() > best.CLB.Min() {
			best = t
			found = true
		}
	}
	return best, found
}

func spouseCanadianYears(spouse *domain.SpouseProfile, now time.Time) int {
	windowStart := now.AddDate(-10, 0, 0)
	months := 0
	for _, w := range spouse.WorkHistory {
		if !w.Canadian || w.TEER > 3 {
			continue
		}
		months += w.MonthsWithin(windowStart, now)
	}
	return months / 12
}

func pick(single, withSpouse int, useSpouse bool) int {
	if useSpouse {
		return withSpouse
	}
	return single
}

// transferabilityCaps trims each subfactor to the per-subfactor cap and
// the running section total to the ceiling, in declared factor order.
type transferabilityCaps struct {
	cap     int
	ceiling int
	section int
}

func newTransferabilityCaps(t bundle.CRSTransferability) *transferabilityCaps {
	return &transferabilityCaps{cap: t.SubfactorCap, ceiling: t.Ceiling}
}

func (c *transferabilityCaps) apply(fc domain.FactorContribution) domain.FactorContribution {
	awarded := min(fc.PointsAwarded, c.cap)
	if room := c.ceiling - c.section; awarded > room {
		awarded = room
	}
	if awarded < 0 {
		awarded = 0
	}
	if awarded != fc.PointsAwarded {
		if fc.InputsUsed == nil {
			fc.InputsUsed = map[string]string{}
		}
		fc.InputsUsed["capped_from"] = fmt.Sprintf("%d", fc.PointsAwarded)
		fc.PointsAwarded = awarded
	}
	c.section += awarded
	return fc
}
