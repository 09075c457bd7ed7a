package bundle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	dErrors "maplecase/pkg/domain-errors"
)

const fixtureDir = "testdata/bundle"

// copyFixture clones the fixture bundle into a temp dir so a test can
// break one file without touching the shared fixture.
func copyFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.CopyFS(dir, os.DirFS(fixtureDir)))
	return dir
}

func TestLoadFixtureBundle(t *testing.T) {
	b, err := Load(fixtureDir)
	require.NoError(t, err)

	assert.Equal(t, "2026.02", b.Version())
	assert.Len(t, b.Fingerprint(), 64)
	assert.Len(t, b.ProgramRules.Programs, 3)
	assert.Len(t, b.Manifest.CRSFactorOrder, 18)
	assert.NotEmpty(t, b.LanguageMinima.Minima["fsw_language"])
	assert.NotEmpty(t, b.WorkExperience.Rules["cec_experience"])

	pkg, ok := b.FormBundle("express_entry_application")
	require.True(t, ok)
	assert.Contains(t, pkg.Forms, "imm0008")
}

func TestLoadMissingSection(t *testing.T) {
	dir := copyFixture(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "proof_of_funds.yaml")))

	_, err := Load(dir)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	assert.Contains(t, err.Error(), "proof_of_funds.yaml")
}

func TestLoadMalformedSection(t *testing.T) {
	dir := copyFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "crs_core.yaml"), []byte("age: [not: valid: yaml"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestLoadUnknownKeyRejected(t *testing.T) {
	dir := copyFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "arranged_employment.yaml"),
		[]byte("version: \"1\"\nmin_duration_months: 12\nfull_time_required: true\nmin_salry: 50000\n"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestLoadMissingSectionVersion(t *testing.T) {
	dir := copyFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "biometrics_medicals.yaml"),
		[]byte("biometrics_valid_years: 10\nmedical_valid_months: 12\n"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	assert.Contains(t, err.Error(), "missing version")
}

func TestLoadBrokenReferences(t *testing.T) {
	t.Run("program rule referencing unknown minimum", func(t *testing.T) {
		dir := copyFixture(t)
		rules := `version: "1"
programs:
  - code: FSW
    checks:
      - type: language_minimum
        reason: FSW_LANG_MIN_CLB
        rule_ref: "IRPR 75(2)(d)"
        minima_ref: nonexistent
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "program_rules.yaml"), []byte(rules), 0o644))

		_, err := Load(dir)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		assert.Contains(t, err.Error(), "nonexistent")
	})

	t.Run("document rule referencing undeclared document", func(t *testing.T) {
		dir := copyFixture(t)
		docs := `version: "1"
documents:
  - { id: passport, label: "Passport", category: identity, mandatory: true }
rules:
  - program: FSW
    include: [passport, birth_certificate]
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "documents.yaml"), []byte(docs), 0o644))

		_, err := Load(dir)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		assert.Contains(t, err.Error(), "birth_certificate")
	})

	t.Run("form bundle referencing undeclared form", func(t *testing.T) {
		dir := copyFixture(t)
		bundles := `version: "1"
bundles:
  - id: express_entry_application
    label: "Express Entry application package"
    forms: [imm0008, imm9999]
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bundles.yaml"), []byte(bundles), 0o644))

		_, err := Load(dir)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		assert.Contains(t, err.Error(), "imm9999")
	})

	t.Run("factor order with unknown factor", func(t *testing.T) {
		dir := copyFixture(t)
		data, err := os.ReadFile(filepath.Join(dir, "bundle.yaml"))
		require.NoError(t, err)
		patched := append([]byte(nil), data...)
		patched = append(patched, []byte("  - core_astrology\n")...)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bundle.yaml"), patched, 0o644))

		_, err = Load(dir)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestLoadManifestMustDeclareEverySection(t *testing.T) {
	dir := copyFixture(t)
	data, err := os.ReadFile(filepath.Join(dir, "bundle.yaml"))
	require.NoError(t, err)
	patched := []byte(strings.Replace(string(data), "  - proof_of_funds\n", "", 1))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bundle.yaml"), patched, 0o644))

	_, err = Load(dir)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	assert.Contains(t, err.Error(), "proof_of_funds")
}

func TestFingerprintStability(t *testing.T) {
	first, err := Load(fixtureDir)
	require.NoError(t, err)
	second, err := Load(fixtureDir)
	require.NoError(t, err)

	assert.Equal(t, first.Fingerprint(), second.Fingerprint())
}

// Reordering keys and adding comments changes the bytes but not the
// meaning, so replays against the same rules keep matching.
func TestFingerprintIgnoresFormatting(t *testing.T) {
	first, err := Load(fixtureDir)
	require.NoError(t, err)

	dir := copyFixture(t)
	data, err := os.ReadFile(filepath.Join(dir, "documents.yaml"))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	reordered, err := yaml.Marshal(doc)
	require.NoError(t, err)
	require.NotEqual(t, data, reordered, "fixture already in marshal key order")
	reordered = append(reordered, []byte("# annual review pending\n")...)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "documents.yaml"), reordered, 0o644))

	same, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, first.Fingerprint(), same.Fingerprint())
}

func TestFingerprintTracksSemanticChange(t *testing.T) {
	first, err := Load(fixtureDir)
	require.NoError(t, err)

	dir := copyFixture(t)
	data, err := os.ReadFile(filepath.Join(dir, "documents.yaml"))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	doc["version"] = "2999.12"
	patched, err := yaml.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "documents.yaml"), patched, 0o644))

	changed, err := Load(dir)
	require.NoError(t, err)
	assert.NotEqual(t, first.Fingerprint(), changed.Fingerprint())
}
