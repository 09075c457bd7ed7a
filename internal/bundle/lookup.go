package bundle

import "maplecase/pkg/domain"

// lookupThreshold takes the highest row whose Min the value reaches.
// Rows below the first threshold score zero; the last row is unbounded.
func lookupThreshold(rows []ThresholdRow, value int) int {
	points := 0
	for _, row := range rows {
		if value >= row.Min {
			points = row.Points
		}
	}
	return points
}

func lookupDualThreshold(rows []DualThresholdRow, value int, withSpouse bool) int {
	points := 0
	for _, row := range rows {
		if value >= row.Min {
			if withSpouse {
				points = row.WithSpouse
			} else {
				points = row.Single
			}
		}
	}
	return points
}

// AgePoints returns core age points. Ages outside every bracket score zero.
func (c CRSCore) AgePoints(age int, withSpouse bool) int {
	for _, row := range c.Age {
		if age >= row.Min && age <= row.Max {
			if withSpouse {
				return row.WithSpouse
			}
			return row.Single
		}
	}
	return 0
}

// EducationPoints returns core education points for an exact level.
func (c CRSCore) EducationPoints(level domain.EducationLevel, withSpouse bool) int {
	for _, row := range c.Education {
		if row.Level == level {
			if withSpouse {
				return row.WithSpouse
			}
			return row.Single
		}
	}
	return 0
}

// FirstLanguagePoints returns points for one ability of the first
// official language.
func (c CRSCore) FirstLanguagePoints(clb int, withSpouse bool) int {
	return lookupDualThreshold(c.FirstLanguage, clb, withSpouse)
}

// SecondLanguagePoints returns points for one ability of the second
// official language. The per-section cap applies to the summed abilities,
// not here.
func (c CRSCore) SecondLanguagePoints(clb int) int {
	return lookupThreshold(c.SecondLanguage, clb)
}

// CanadianExperiencePoints returns core points for whole years of
// Canadian skilled experience.
func (c CRSCore) CanadianExperiencePoints(years int, withSpouse bool) int {
	return lookupDualThreshold(c.CanadianExperience, years, withSpouse)
}

// EducationPoints returns spouse education points for an exact level.
func (s CRSSpouse) EducationPoints(level domain.EducationLevel) int {
	for _, row := range s.Education {
		if row.Level == level {
			return row.Points
		}
	}
	return 0
}

// LanguagePoints returns spouse points for one language ability.
func (s CRSSpouse) LanguagePoints(clb int) int {
	return lookupThreshold(s.Language, clb)
}

// CanadianExperiencePoints returns spouse points for whole years of
// Canadian experience.
func (s CRSSpouse) CanadianExperiencePoints(years int) int {
	return lookupThreshold(s.CanadianExperience, years)
}

// EducationLanguagePoints returns the best satisfied education and
// language combination.
func (t CRSTransferability) EducationLanguagePoints(level domain.EducationLevel, minCLB int) int {
	best := 0
	for _, row := range t.EducationLanguage {
		if level.Rank() >= row.MinLevel.Rank() && minCLB >= row.MinCLB && row.Points > best {
			best = row.Points
		}
	}
	return best
}

// EducationCanadianWorkPoints returns the best satisfied education and
// Canadian work combination.
func (t CRSTransferability) EducationCanadianWorkPoints(level domain.EducationLevel, canadianYears int) int {
	best := 0
	for _, row := range t.EducationCanadianWork {
		if level.Rank() >= row.MinLevel.Rank() && canadianYears >= row.MinCanadianYears && row.Points > best {
			best = row.Points
		}
	}
	return best
}

// ForeignWorkLanguagePoints returns the best satisfied foreign work and
// language combination.
func (t CRSTransferability) ForeignWorkLanguagePoints(foreignYears, minCLB int) int {
	best := 0
	for _, row := range t.ForeignWorkLanguage {
		if foreignYears >= row.MinForeignYears && minCLB >= row.MinCLB && row.Points > best {
			best = row.Points
		}
	}
	return best
}

// ForeignWorkCanadianWorkPoints returns the best satisfied foreign and
// Canadian work combination.
func (t CRSTransferability) ForeignWorkCanadianWorkPoints(foreignYears, canadianYears int) int {
	best := 0
	for _, row := range t.ForeignWorkCanadianWork {
		if foreignYears >= row.MinForeignYears && canadianYears >= row.MinCanadianYears && row.Points > best {
			best = row.Points
		}
	}
	return best
}

// CertificateLanguagePoints returns points for a certificate of
// qualification at the given minimum CLB.
func (t CRSTransferability) CertificateLanguagePoints(minCLB int) int {
	return lookupThreshold(t.CertificateLanguage, minCLB)
}

// ArrangedEmploymentPoints returns points for the first matching offer
// row in declared order.
func (a CRSAdditional) ArrangedEmploymentPoints(teer int, majorGroup00 bool) int {
	for _, row := range a.ArrangedEmployment {
		if row.MajorGroup00 && !majorGroup00 {
			continue
		}
		if teer <= row.MaxTEER {
			return row.Points
		}
	}
	return 0
}

// CanadianStudyPoints returns study bonus points for whole years of
// eligible Canadian study.
func (a CRSAdditional) CanadianStudyPoints(years int) int {
	return lookupThreshold(a.CanadianStudy, years)
}

// FrenchBonusPoints returns the first matching tier in declared order so
// a candidate is awarded the higher tier exactly once.
func (a CRSAdditional) FrenchBonusPoints(frenchCLB, englishCLB int) int {
	for _, row := range a.FrenchBonus {
		if frenchCLB >= row.MinFrenchCLB && englishCLB >= row.MinEnglishCLB {
			return row.Points
		}
	}
	return 0
}

// RequiredFunds returns the settlement funds floor for a family size.
// The last row covers all larger families.
func (p ProofOfFunds) RequiredFunds(familySize int) int64 {
	var amount int64
	for _, row := range p.Rows {
		if familySize >= row.MinFamilySize {
			amount = row.AmountCents
		}
	}
	return amount
}

// Meets reports whether CLB scores satisfy every ability floor.
func (m LanguageMinimum) Meets(clb domain.CLBScores) bool {
	return clb.Reading >= m.Reading &&
		clb.Writing >= m.Writing &&
		clb.Listening >= m.Listening &&
		clb.Speaking >= m.Speaking
}
