// Package fingerprint derives the deterministic evaluation fingerprint.
// Two evaluations of the same profile under the same rule bundle and
// engine version always produce the same fingerprint, so replays and
// cross-instance comparisons can detect drift.
package fingerprint

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/crypto/sha3"
	"golang.org/x/text/unicode/norm"

	"maplecase/pkg/domain"
	dErrors "maplecase/pkg/domain-errors"
)

// Evaluation hashes the canonical profile bytes, the bundle fingerprint,
// and the engine version, each length-prefixed so field boundaries cannot
// collide.
func Evaluation(profile *domain.CandidateProfile, bundleFingerprint, engineVersion string) (string, error) {
	canonical, err := CanonicalProfile(profile)
	if err != nil {
		return "", err
	}

	h := sha3.New256()
	var prefix [8]byte
	for _, part := range [][]byte{canonical, []byte(bundleFingerprint), []byte(engineVersion)} {
		binary.BigEndian.PutUint64(prefix[:], uint64(len(part)))
		h.Write(prefix[:])
		h.Write(part)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// CanonicalProfile renders the profile as canonical JSON.
func CanonicalProfile(profile *domain.CandidateProfile) ([]byte, error) {
	return Canonical(profile)
}

// Canonical renders a JSON-encodable value as canonical JSON: object
// keys sorted, strings NFC-normalized, numbers in shortest form,
// timestamps kept as their RFC 3339 encoding. NaN and infinities are
// rejected.
func Canonical(value any) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode value")
	}

	var decoded any
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "decode value")
	}

	var sb strings.Builder
	if err := writeCanonical(&sb, decoded); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

func writeCanonical(sb *strings.Builder, value any) error {
	switch v := value.(type) {
	case nil:
		sb.WriteString("null")
	case bool:
		if v {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case json.Number:
		return writeNumber(sb, v)
	case string:
		return writeString(sb, v)
	case []any:
		sb.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				sb.WriteByte(',')
			}
			if err := writeCanonical(sb, item); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			if err := writeString(sb, k); err != nil {
				return err
			}
			sb.WriteByte(':')
			if err := writeCanonical(sb, v[k]); err != nil {
				return err
			}
		}
		sb.WriteByte('}')
	default:
		return dErrors.Newf(dErrors.CodeInternal, "unsupported canonical value %T", value)
	}
	return nil
}

// writeNumber emits integers as-is and floats in shortest round-trip
// form so 1.50 and 1.5 hash identically.
func writeNumber(sb *strings.Builder, n json.Number) error {
	if i, err := n.Int64(); err == nil {
		sb.WriteString(strconv.FormatInt(i, 10))
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return dErrors.Newf(dErrors.CodeInvalidInput, "non-finite number %q in profile", n.String())
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return dErrors.Newf(dErrors.CodeInvalidInput, "non-finite number %q in profile", n.String())
	}
	sb.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

func writeString(sb *strings.Builder, s string) error {
	encoded, err := json.Marshal(norm.NFC.String(s))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode string")
	}
	sb.Write(encoded)
	return nil
}

// Short returns a log-friendly prefix of a fingerprint.
func Short(fp string) string {
	if len(fp) <= 12 {
		return fp
	}
	return fmt.Sprintf("%s…", fp[:12])
}
