// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package convert

import (
	"os"
	"path/filepath"

	"grimm.is/pfopn/internal/errors"
)

// EnsureOutputNotSame refuses an output path that resolves to one of the
// input paths, so a conversion can never clobber its own source or baseline.
func EnsureOutputNotSame(output string, inputs ...string) error {
	outNorm, err := normalizeForCompare(output)
	if err != nil {
		return errors.Wrapf(err, errors.KindValidation, "failed to normalize output path %s", output)
	}

	for _, input := range inputs {
		inNorm, err := normalizeForCompare(input)
		if err != nil {
			return errors.Wrapf(err, errors.KindValidation, "failed to normalize input path %s", input)
		}
		if outNorm == inNorm {
			return errors.Errorf(errors.KindRefused,
				"refusing to overwrite source file: output %s matches input %s", output, input)
		}
	}
	return nil
}

func normalizeForCompare(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		// EvalSymlinks resolves links and `..` for paths that exist on disk.
		resolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			return "", err
		}
		return filepath.Abs(resolved)
	}

	// The output file usually does not exist yet, so symlinks cannot be
	// resolved; an absolute lexical cleanup is the best available check.
	return filepath.Abs(path)
}
