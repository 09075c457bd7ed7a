package bundle

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/sha3"

	"maplecase/internal/fingerprint"
)

// computeFingerprint hashes the canonical serialization of every parsed
// section, keyed by section name. Formatting-only edits to the files
// (key order, comments, whitespace) leave the fingerprint unchanged;
// any semantic change moves it. Names and payloads are length-prefixed
// so no two distinct bundles can collide by concatenation.
func computeFingerprint(b *Bundle) (string, error) {
	sections := []struct {
		name  string
		value any
	}{
		{fileManifest, b.Manifest},
		{fileCRSCore, b.CRSCore},
		{fileCRSSpouse, b.CRSSpouse},
		{fileCRSTransferability, b.CRSTransferability},
		{fileCRSAdditional, b.CRSAdditional},
		{fileCLBTables, b.CLBTables},
		{fileLanguageMinima, b.LanguageMinima},
		{fileWorkExperience, b.WorkExperience},
		{fileProofOfFunds, b.ProofOfFunds},
		{fileProgramRules, b.ProgramRules},
		{fileArrangedEmployment, b.ArrangedEmployment},
		{fileBiometricsMedicals, b.BiometricsMedicals},
		{fileDocuments, b.Documents},
		{fileForms, b.Forms},
		{fileBundles, b.FormBundles},
	}

	h := sha3.New256()
	var prefix [8]byte
	for _, s := range sections {
		canonical, err := fingerprint.Canonical(s.value)
		if err != nil {
			return "", err
		}

		binary.BigEndian.PutUint64(prefix[:], uint64(len(s.name)))
		h.Write(prefix[:])
		h.Write([]byte(s.name))

		binary.BigEndian.PutUint64(prefix[:], uint64(len(canonical)))
		h.Write(prefix[:])
		h.Write(canonical)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
