package cli

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"

	"github.com/roach88/fixpoint/internal/compiler"
)

// LoadError represents an error that occurred during model loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadModels reads a CUE file and compiles every model it defines.
//
// Models live under the top-level `model` field. A single anonymous
// model (`model: {nodes: ...}`) and named models
// (`model: mixture: {...}`) are both accepted.
func LoadModels(path string) ([]*compiler.ModelSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("model file not found: %s", path)}
		}
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error reading model file: %v", err)}
	}

	ctx := cuecontext.New()
	v := ctx.CompileString(string(data), cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("parsing CUE: %v", err)}
	}

	modelVal := v.LookupPath(cue.ParsePath("model"))
	if !modelVal.Exists() {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("no model found in %s", path)}
	}

	// Anonymous form: the model struct carries nodes directly.
	if modelVal.LookupPath(cue.ParsePath("nodes")).Exists() {
		spec, err := compiler.CompileModel(modelVal)
		if err != nil {
			return nil, err
		}
		return []*compiler.ModelSpec{spec}, nil
	}

	iter, err := modelVal.Fields()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("iterating models: %v", err)}
	}

	var specs []*compiler.ModelSpec
	for iter.Next() {
		spec, err := compiler.CompileModel(iter.Value())
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}

	if len(specs) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("no models found in %s", path)}
	}

	return specs, nil
}
