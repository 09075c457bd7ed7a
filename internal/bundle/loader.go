package bundle

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"maplecase/pkg/domain"
	dErrors "maplecase/pkg/domain-errors"
)

// Section file names under the bundle directory.
const (
	fileManifest           = "bundle.yaml"
	fileCRSCore            = "crs_core.yaml"
	fileCRSSpouse          = "crs_spouse.yaml"
	fileCRSTransferability = "crs_transferability.yaml"
	fileCRSAdditional      = "crs_additional.yaml"
	fileCLBTables          = "clb_tables.yaml"
	fileLanguageMinima     = "language_minima.yaml"
	fileWorkExperience     = "work_experience.yaml"
	fileProofOfFunds       = "proof_of_funds.yaml"
	fileProgramRules       = "program_rules.yaml"
	fileArrangedEmployment = "arranged_employment.yaml"
	fileBiometricsMedicals = "biometrics_medicals.yaml"
	fileDocuments          = "documents.yaml"
	fileForms              = "forms.yaml"
	fileBundles            = "bundles.yaml"
)

// Load reads a complete bundle from dir and validates it. It returns a
// coded error naming the missing file, the invalid section, or the first
// broken cross-section reference.
func Load(dir string) (*Bundle, error) {
	b := &Bundle{}

	sections := []struct {
		file string
		into any
	}{
		{fileManifest, &b.Manifest},
		{fileCRSCore, &b.CRSCore},
		{fileCRSSpouse, &b.CRSSpouse},
		{fileCRSTransferability, &b.CRSTransferability},
		{fileCRSAdditional, &b.CRSAdditional},
		{fileCLBTables, &b.CLBTables},
		{fileLanguageMinima, &b.LanguageMinima},
		{fileWorkExperience, &b.WorkExperience},
		{fileProofOfFunds, &b.ProofOfFunds},
		{fileProgramRules, &b.ProgramRules},
		{fileArrangedEmployment, &b.ArrangedEmployment},
		{fileBiometricsMedicals, &b.BiometricsMedicals},
		{fileDocuments, &b.Documents},
		{fileForms, &b.Forms},
		{fileBundles, &b.FormBundles},
	}

	for _, s := range sections {
		data, err := os.ReadFile(filepath.Join(dir, s.file))
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, fmt.Sprintf("config missing: %s", s.file))
		}
		if err := decodeStrict(data, s.into); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, fmt.Sprintf("config invalid: %s", s.file))
		}
	}

	if err := b.validate(); err != nil {
		return nil, err
	}

	fp, err := computeFingerprint(b)
	if err != nil {
		return nil, err
	}
	b.fingerprint = fp
	return b, nil
}

// decodeStrict rejects unknown keys so a typoed table name fails the load
// instead of silently scoring zero.
func decodeStrict(data []byte, into any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(into)
}

func (b *Bundle) validate() error {
	if b.Manifest.Version == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "config invalid: bundle.yaml missing version")
	}
	for file, version := range map[string]string{
		fileCRSCore:            b.CRSCore.Version,
		fileCRSSpouse:          b.CRSSpouse.Version,
		fileCRSTransferability: b.CRSTransferability.Version,
		fileCRSAdditional:      b.CRSAdditional.Version,
		fileCLBTables:          b.CLBTables.Version,
		fileLanguageMinima:     b.LanguageMinima.Version,
		fileWorkExperience:     b.WorkExperience.Version,
		fileProofOfFunds:       b.ProofOfFunds.Version,
		fileProgramRules:       b.ProgramRules.Version,
		fileArrangedEmployment: b.ArrangedEmployment.Version,
		fileBiometricsMedicals: b.BiometricsMedicals.Version,
		fileDocuments:          b.Documents.Version,
		fileForms:              b.Forms.Version,
		fileBundles:            b.FormBundles.Version,
	} {
		if version == "" {
			return dErrors.Newf(dErrors.CodeInvalidInput, "config invalid: %s missing version", file)
		}
	}

	if err := b.validateManifestSections(); err != nil {
		return err
	}
	if err := b.validateFactorOrder(); err != nil {
		return err
	}
	if err := b.validateProgramRules(); err != nil {
		return err
	}
	if err := b.validateMatrixRefs(); err != nil {
		return err
	}
	return b.validateFormBundles()
}

// validateManifestSections checks bundle.yaml declares exactly the
// section files the loader reads, so a manifest and its directory cannot
// drift apart silently.
func (b *Bundle) validateManifestSections() error {
	required := []string{
		fileCRSCore, fileCRSSpouse, fileCRSTransferability, fileCRSAdditional,
		fileCLBTables, fileLanguageMinima, fileWorkExperience, fileProofOfFunds,
		fileProgramRules, fileArrangedEmployment, fileBiometricsMedicals,
		fileDocuments, fileForms, fileBundles,
	}
	known := make(map[string]bool, len(required))
	for _, file := range required {
		known[strings.TrimSuffix(file, ".yaml")] = true
	}

	declared := make(map[string]bool, len(b.Manifest.Sections))
	for _, name := range b.Manifest.Sections {
		if !known[name] {
			return brokenRef("bundle.yaml declares unknown section %q", name)
		}
		if declared[name] {
			return dErrors.Newf(dErrors.CodeInvalidInput, "config invalid: section %q declared twice", name)
		}
		declared[name] = true
	}
	for name := range known {
		if !declared[name] {
			return dErrors.Newf(dErrors.CodeInvalidInput, "config invalid: bundle.yaml does not declare section %q", name)
		}
	}
	return nil
}

func (b *Bundle) validateFactorOrder() error {
	known := make(map[string]bool)
	for _, code := range domain.KnownFactorCodes() {
		known[code] = true
	}
	seen := make(map[string]bool)
	for _, code := range b.Manifest.CRSFactorOrder {
		if !known[code] {
			return brokenRef("bundle.yaml crs_factor_order references unknown factor %q", code)
		}
		if seen[code] {
			return dErrors.Newf(dErrors.CodeInvalidInput, "config invalid: factor %q listed twice", code)
		}
		seen[code] = true
	}
	if len(seen) != len(known) {
		return dErrors.New(dErrors.CodeInvalidInput, "config invalid: crs_factor_order must list every factor")
	}
	return nil
}

func (b *Bundle) validateProgramRules() error {
	if len(b.ProgramRules.Programs) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "config invalid: program_rules declares no programs")
	}
	for _, program := range b.ProgramRules.Programs {
		for _, check := range program.Checks {
			if check.Reason == "" {
				return dErrors.Newf(dErrors.CodeInvalidInput, "config invalid: %s check %s has no reason code", program.Code, check.Type)
			}
			switch check.Type {
			case CheckLanguageMinimum:
				if _, ok := b.LanguageMinima.Minima[check.MinimaRef]; !ok {
					return brokenRef("%s references unknown language minimum %q", program.Code, check.MinimaRef)
				}
			case CheckLanguageByTEER:
				for _, ref := range []string{check.MinimaRefTEER01, check.MinimaRefTEER23} {
					if _, ok := b.LanguageMinima.Minima[ref]; !ok {
						return brokenRef("%s references unknown language minimum %q", program.Code, ref)
					}
				}
				if _, ok := b.WorkExperience.Rules[check.ExperienceRef]; !ok {
					return brokenRef("%s references unknown experience rule %q", program.Code, check.ExperienceRef)
				}
			case CheckSkilledExperience:
				if _, ok := b.WorkExperience.Rules[check.ExperienceRef]; !ok {
					return brokenRef("%s references unknown experience rule %q", program.Code, check.ExperienceRef)
				}
			case CheckEducationMinimum:
				if check.MinLevel.Rank() < 0 {
					return brokenRef("%s references unknown education level %q", program.Code, check.MinLevel)
				}
			case CheckProofOfFunds, CheckJobOfferOrCert:
			default:
				return brokenRef("%s declares unknown check type %q", program.Code, check.Type)
			}
		}
	}
	return nil
}

func (b *Bundle) validateMatrixRefs() error {
	for _, rule := range b.Documents.Rules {
		for _, id := range rule.Include {
			if _, ok := b.Document(id); !ok {
				return brokenRef("documents rule references unknown document %q", id)
			}
		}
	}
	for _, rule := range b.Forms.Rules {
		for _, id := range rule.Include {
			if _, ok := b.Form(id); !ok {
				return brokenRef("forms rule references unknown form %q", id)
			}
		}
	}
	return nil
}

func (b *Bundle) validateFormBundles() error {
	seen := make(map[string]bool, len(b.FormBundles.Bundles))
	for _, fb := range b.FormBundles.Bundles {
		if fb.ID == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "config invalid: form bundle with empty id")
		}
		if seen[fb.ID] {
			return dErrors.Newf(dErrors.CodeInvalidInput, "config invalid: form bundle %q declared twice", fb.ID)
		}
		seen[fb.ID] = true
		for _, id := range fb.Forms {
			if _, ok := b.Form(id); !ok {
				return brokenRef("form bundle %q references unknown form %q", fb.ID, id)
			}
		}
	}
	return nil
}

func brokenRef(format string, args ...any) error {
	return dErrors.Newf(dErrors.CodeInvariantViolation, "config reference broken: "+format, args...)
}
