package domain

// CRS factor codes. The bundle's factor order and every contribution's
// FactorCode are drawn from this vocabulary.
const (
	FactorCoreAge                  = "core_human_capital_age"
	FactorCoreEducation            = "core_human_capital_education"
	FactorCoreFirstLanguage        = "core_first_language"
	FactorCoreSecondLanguage       = "core_second_language"
	FactorCoreCanadianExperience   = "core_canadian_experience"
	FactorSpouseEducation          = "spouse_education"
	FactorSpouseLanguage           = "spouse_language"
	FactorSpouseCanadianExperience = "spouse_canadian_experience"
	FactorTransferEduLanguage      = "transferability_education_language"
	FactorTransferEduCanadianWork  = "transferability_education_canadian_work"
	FactorTransferForeignLanguage  = "transferability_foreign_work_language"
	FactorTransferForeignCanadian  = "transferability_foreign_work_canadian_work"
	FactorTransferCertLanguage     = "transferability_certificate_language"
	FactorAdditionalNomination     = "additional_provincial_nomination"
	FactorAdditionalJobOffer       = "additional_arranged_employment"
	FactorAdditionalStudy          = "additional_canadian_study"
	FactorAdditionalFrench         = "additional_french_bonus"
	FactorAdditionalSibling        = "additional_sibling_in_canada"
)

// KnownFactorCodes returns the full vocabulary in canonical order.
func KnownFactorCodes() []string {
	return []string{
		FactorCoreAge,
		FactorCoreEducation,
		FactorCoreFirstLanguage,
		FactorCoreSecondLanguage,
		FactorCoreCanadianExperience,
		FactorSpouseEducation,
		FactorSpouseLanguage,
		FactorSpouseCanadianExperience,
		FactorTransferEduLanguage,
		FactorTransferEduCanadianWork,
		FactorTransferForeignLanguage,
		FactorTransferForeignCanadian,
		FactorTransferCertLanguage,
		FactorAdditionalNomination,
		FactorAdditionalJobOffer,
		FactorAdditionalStudy,
		FactorAdditionalFrench,
		FactorAdditionalSibling,
	}
}
