package harness

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// decodeCUE evaluates a CUE scenario and decodes it into s. The file must
// evaluate to a concrete value whose fields match the YAML format.
func decodeCUE(data []byte, filename string, s *Scenario) error {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return err
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("scenario must be concrete: %w", err)
	}
	return v.Decode(s)
}
