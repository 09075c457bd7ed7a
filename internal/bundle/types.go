// Package bundle loads and serves the versioned rule configuration: CRS
// point tables, program eligibility rules, CLB conversion tables, and the
// document and form matrix. A loaded Bundle is immutable; reloads swap a
// new Bundle in atomically so in-flight evaluations keep a consistent view.
package bundle

import "maplecase/pkg/domain"

// Manifest is the bundle.yaml entry point. Sections lists the files the
// bundle must contain; CRSFactorOrder fixes the order factor contributions
// appear in results.
type Manifest struct {
	Version        string   `yaml:"version"`
	Description    string   `yaml:"description"`
	Sections       []string `yaml:"sections"`
	CRSFactorOrder []string `yaml:"crs_factor_order"`
}

// ThresholdRow awards points when a value reaches Min. Tables are sorted
// ascending; lookups take the highest row whose Min the value reaches and
// the last row is unbounded above.
type ThresholdRow struct {
	Min    int `yaml:"min"`
	Points int `yaml:"points"`
}

// AgeRow awards points for ages in [Min, Max]. Ages outside every row
// score zero.
type AgeRow struct {
	Min        int `yaml:"min"`
	Max        int `yaml:"max"`
	Single     int `yaml:"single"`
	WithSpouse int `yaml:"with_spouse"`
}

// LevelRow awards points for an exact education level.
type LevelRow struct {
	Level      domain.EducationLevel `yaml:"level"`
	Single     int                   `yaml:"single"`
	WithSpouse int                   `yaml:"with_spouse"`
}

// DualThresholdRow is a ThresholdRow with separate single and with-spouse
// awards.
type DualThresholdRow struct {
	Min        int `yaml:"min"`
	Single     int `yaml:"single"`
	WithSpouse int `yaml:"with_spouse"`
}

// CRSCore is the core human capital table set.
type CRSCore struct {
	Version            string             `yaml:"version"`
	Age                []AgeRow           `yaml:"age"`
	Education          []LevelRow         `yaml:"education"`
	FirstLanguage      []DualThresholdRow `yaml:"first_language"`
	SecondLanguage     []ThresholdRow     `yaml:"second_language"`
	SecondLanguageCap  int                `yaml:"second_language_cap"`
	CanadianExperience []DualThresholdRow `yaml:"canadian_experience"`
}

// SpouseLevelRow awards spouse education points for an exact level.
type SpouseLevelRow struct {
	Level  domain.EducationLevel `yaml:"level"`
	Points int                   `yaml:"points"`
}

// CRSSpouse is the accompanying-spouse table set. Language rows award per
// ability.
type CRSSpouse struct {
	Version            string           `yaml:"version"`
	Education          []SpouseLevelRow `yaml:"education"`
	Language           []ThresholdRow   `yaml:"language"`
	CanadianExperience []ThresholdRow   `yaml:"canadian_experience"`
}

// ComboRow awards points when both minima are met. Lookups take the best
// points among satisfied rows.
type ComboRow struct {
	MinLevel         domain.EducationLevel `yaml:"min_level,omitempty"`
	MinCLB           int                   `yaml:"min_clb,omitempty"`
	MinForeignYears  int                   `yaml:"min_foreign_years,omitempty"`
	MinCanadianYears int                   `yaml:"min_canadian_years,omitempty"`
	Points           int                   `yaml:"points"`
}

// CRSTransferability is the skill transferability table set. Each
// subfactor pair is capped at SubfactorCap and the whole section at
// Ceiling.
type CRSTransferability struct {
	Version                 string         `yaml:"version"`
	Ceiling                 int            `yaml:"ceiling"`
	SubfactorCap            int            `yaml:"subfactor_cap"`
	EducationLanguage       []ComboRow     `yaml:"education_language"`
	EducationCanadianWork   []ComboRow     `yaml:"education_canadian_work"`
	ForeignWorkLanguage     []ComboRow     `yaml:"foreign_work_language"`
	ForeignWorkCanadianWork []ComboRow     `yaml:"foreign_work_canadian_work"`
	CertificateLanguage     []ThresholdRow `yaml:"certificate_language"`
}

// OfferRow awards arranged employment points. Rows are evaluated in
// declared order; the first match wins.
type OfferRow struct {
	MaxTEER      int  `yaml:"max_teer"`
	MajorGroup00 bool `yaml:"major_group_00"`
	Points       int  `yaml:"points"`
}

// FrenchRow awards French-language bonus points. Rows are evaluated in
// declared order and only the first matching tier is awarded.
type FrenchRow struct {
	MinFrenchCLB  int `yaml:"min_french_clb"`
	MinEnglishCLB int `yaml:"min_english_clb"`
	Points        int `yaml:"points"`
}

// CRSAdditional is the additional points table set.
type CRSAdditional struct {
	Version              string         `yaml:"version"`
	ProvincialNomination int            `yaml:"provincial_nomination"`
	ArrangedEmployment   []OfferRow     `yaml:"arranged_employment"`
	CanadianStudy        []ThresholdRow `yaml:"canadian_study"`
	FrenchBonus          []FrenchRow    `yaml:"french_bonus"`
	SiblingInCanada      int            `yaml:"sibling_in_canada"`
}

// ConversionRow maps a raw test score at or above Min to a CLB level.
type ConversionRow struct {
	Min float64 `yaml:"min"`
	CLB int     `yaml:"clb"`
}

// CLBTables converts raw test scores to CLB per test type and ability.
type CLBTables struct {
	Version string                                `yaml:"version"`
	Tests   map[string]map[string][]ConversionRow `yaml:"tests"`
}

// LanguageMinimum is a named per-ability CLB floor referenced by program
// rules.
type LanguageMinimum struct {
	Reading   int `yaml:"reading"`
	Writing   int `yaml:"writing"`
	Listening int `yaml:"listening"`
	Speaking  int `yaml:"speaking"`
}

// LanguageMinima is the language_minima section.
type LanguageMinima struct {
	Version string                     `yaml:"version"`
	Minima  map[string]LanguageMinimum `yaml:"minima"`
}

// ExperienceRule is a named work experience requirement referenced by
// program rules.
type ExperienceRule struct {
	MinMonths   int  `yaml:"min_months"`
	WindowYears int  `yaml:"window_years"`
	Canadian    bool `yaml:"canadian"`
	MinTEER     int  `yaml:"min_teer"`
	MaxTEER     int  `yaml:"max_teer"`
	Continuous  bool `yaml:"continuous"`
}

// WorkExperienceRules is the work_experience section.
type WorkExperienceRules struct {
	Version string                    `yaml:"version"`
	Rules   map[string]ExperienceRule `yaml:"rules"`
}

// FundsRow sets the required settlement funds for family sizes of at
// least MinFamilySize. The last row covers all larger families.
type FundsRow struct {
	MinFamilySize int   `yaml:"min_family_size"`
	AmountCents   int64 `yaml:"amount_cents"`
}

// ProofOfFunds is the proof_of_funds section.
type ProofOfFunds struct {
	Version string     `yaml:"version"`
	Rows    []FundsRow `yaml:"rows"`
}

// CheckType names an eligibility predicate the evaluator knows how to run.
type CheckType string

const (
	CheckLanguageMinimum   CheckType = "language_minimum"
	CheckLanguageByTEER    CheckType = "language_minimum_by_teer"
	CheckSkilledExperience CheckType = "skilled_experience"
	CheckEducationMinimum  CheckType = "education_minimum"
	CheckProofOfFunds      CheckType = "proof_of_funds"
	CheckJobOfferOrCert    CheckType = "job_offer_or_certificate"
)

// ProgramCheck is one predicate in a program's chain. MinimaRef and
// ExperienceRef name entries in language_minima and work_experience. The
// TEER-split minima refs serve checks whose language floor depends on the
// TEER of the qualifying experience; ReasonNotCanadian replaces Reason
// when a Canadian-only experience shortfall would be met by foreign work.
type ProgramCheck struct {
	Type               CheckType             `yaml:"type"`
	Reason             domain.ReasonCode     `yaml:"reason"`
	RuleRef            string                `yaml:"rule_ref"`
	MinimaRef          string                `yaml:"minima_ref,omitempty"`
	MinimaRefTEER01    string                `yaml:"minima_ref_teer_0_1,omitempty"`
	MinimaRefTEER23    string                `yaml:"minima_ref_teer_2_3,omitempty"`
	ExperienceRef      string                `yaml:"experience_ref,omitempty"`
	ReasonNotCanadian  domain.ReasonCode     `yaml:"reason_not_canadian,omitempty"`
	MinLevel           domain.EducationLevel `yaml:"min_level,omitempty"`
	ExemptWithJobOffer bool                  `yaml:"exempt_with_job_offer,omitempty"`
}

// ProgramRule is one program's ordered predicate chain.
type ProgramRule struct {
	Code   domain.ProgramCode `yaml:"code"`
	Checks []ProgramCheck     `yaml:"checks"`
}

// ProgramRules is the program_rules section. Programs evaluate in
// declared order, which also sets recommendation precedence.
type ProgramRules struct {
	Version  string        `yaml:"version"`
	Programs []ProgramRule `yaml:"programs"`
}

// ArrangedEmployment sets what counts as a supported job offer.
type ArrangedEmployment struct {
	Version           string `yaml:"version"`
	MinDurationMonths int    `yaml:"min_duration_months"`
	FullTimeRequired  bool   `yaml:"full_time_required"`
}

// BiometricsMedicals sets validity periods surfaced as readiness checks.
type BiometricsMedicals struct {
	Version              string `yaml:"version"`
	BiometricsValidYears int    `yaml:"biometrics_valid_years"`
	MedicalValidMonths   int    `yaml:"medical_valid_months"`
}

// DocumentDef declares one document the matrix can require.
type DocumentDef struct {
	ID        string `yaml:"id"`
	Label     string `yaml:"label"`
	Category  string `yaml:"category"`
	Mandatory bool   `yaml:"mandatory"`
}

// DocumentRule includes documents for a program, optionally gated on a
// profile condition. Include entries must reference declared documents.
type DocumentRule struct {
	Program   domain.ProgramCode `yaml:"program,omitempty"`
	Condition string             `yaml:"condition,omitempty"`
	Include   []string           `yaml:"include"`
}

// Documents is the documents section.
type Documents struct {
	Version   string         `yaml:"version"`
	Documents []DocumentDef  `yaml:"documents"`
	Rules     []DocumentRule `yaml:"rules"`
}

// FormField is one field of a government form.
type FormField struct {
	Path     string `yaml:"path"`
	Required bool   `yaml:"required"`
}

// FormDef declares one form and its fields.
type FormDef struct {
	ID     string      `yaml:"id"`
	Title  string      `yaml:"title"`
	Fields []FormField `yaml:"fields"`
}

// FormRule assigns forms to a program or condition.
type FormRule struct {
	Program   domain.ProgramCode `yaml:"program,omitempty"`
	Condition string             `yaml:"condition,omitempty"`
	Include   []string           `yaml:"include"`
}

// Forms is the forms section.
type Forms struct {
	Version string     `yaml:"version"`
	Forms   []FormDef  `yaml:"forms"`
	Rules   []FormRule `yaml:"rules"`
}

// FormBundle groups the forms one application package submits together.
// Every entry in Forms must name a declared form.
type FormBundle struct {
	ID    string   `yaml:"id"`
	Label string   `yaml:"label"`
	Forms []string `yaml:"forms"`
}

// FormBundles is the bundles section.
type FormBundles struct {
	Version string       `yaml:"version"`
	Bundles []FormBundle `yaml:"bundles"`
}

// Bundle is one immutable, fingerprinted rule configuration.
type Bundle struct {
	Manifest           Manifest
	CRSCore            CRSCore
	CRSSpouse          CRSSpouse
	CRSTransferability CRSTransferability
	CRSAdditional      CRSAdditional
	CLBTables          CLBTables
	LanguageMinima     LanguageMinima
	WorkExperience     WorkExperienceRules
	ProofOfFunds       ProofOfFunds
	ProgramRules       ProgramRules
	ArrangedEmployment ArrangedEmployment
	BiometricsMedicals BiometricsMedicals
	Documents          Documents
	Forms              Forms
	FormBundles        FormBundles

	fingerprint string
}

// Version returns the manifest version recorded in evaluation results.
func (b *Bundle) Version() string {
	return b.Manifest.Version
}

// Fingerprint returns the content fingerprint computed at load time.
func (b *Bundle) Fingerprint() string {
	return b.fingerprint
}

// Document returns a declared document definition by ID.
func (b *Bundle) Document(id string) (DocumentDef, bool) {
	for _, d := range b.Documents.Documents {
		if d.ID == id {
			return d, true
		}
	}
	return DocumentDef{}, false
}

// Form returns a declared form definition by ID.
func (b *Bundle) Form(id string) (FormDef, bool) {
	for _, f := range b.Forms.Forms {
		if f.ID == id {
			return f, true
		}
	}
	return FormDef{}, false
}

// FormBundle returns a declared form bundle by ID.
func (b *Bundle) FormBundle(id string) (FormBundle, bool) {
	for _, fb := range b.FormBundles.Bundles {
		if fb.ID == id {
			return fb, true
		}
	}
	return FormBundle{}, false
}
