package bundle

import (
	dErrors "maplecase/pkg/domain-errors"
)

// ConvertToCLB maps one raw ability score to a CLB level using the
// conversion table for the test type. Scores below the lowest row convert
// to CLB 0.
func (t CLBTables) ConvertToCLB(testType, ability string, raw float64) (int, error) {
	abilities, ok := t.Tests[testType]
	if !ok {
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "no CLB conversion table for test type %q", testType)
	}
	rows, ok := abilities[ability]
	if !ok {
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "no %s conversion rows for ability %q", testType, ability)
	}

	clb := 0
	for _, row := range rows {
		if raw >= row.Min {
			clb = row.CLB
		}
	}
	return clb, nil
}
