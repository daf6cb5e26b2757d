// Package suite compiles CUE suite definitions into run configuration.
//
// A suite file names the estimators to exercise, the synthesis seed, check
// include/exclude filters, tolerance overrides, and the exemption ledger
// path. Compilation uses CUE SDK's Go API directly (not CLI subprocess),
// and every validation error carries the CUE source position.
package suite

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Spec is a compiled suite definition.
type Spec struct {
	// Name identifies the suite in reports and the results store.
	Name string

	// Seed drives fixture synthesis. Zero is a valid seed.
	Seed uint64

	// Estimators lists catalog ids to check, in suite order.
	Estimators []string

	// Include restricts the registry to the named checks when non-empty.
	Include []string

	// Exclude removes the named checks from the registry.
	Exclude []string

	// LedgerPath points at the exemption ledger YAML, relative to the
	// suite file's directory when relative. Empty means no ledger.
	LedgerPath string

	// Tolerance overrides the behavioral comparison tolerance when set.
	Tolerance *Tolerance
}

// Tolerance mirrors the check registry's comparison bounds.
type Tolerance struct {
	Abs float64
	Rel float64
}

// Load reads and compiles a suite file from disk.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite file: %w", err)
	}
	return Compile(data, path)
}

// Compile parses CUE source into a Spec. The suite definition lives under
// the top-level "suite" field:
//
//	suite: {
//		name:       "default"
//		seed:       42
//		estimators: ["centroid", "meanreg"]
//	}
func Compile(src []byte, filename string) (*Spec, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	root := v.LookupPath(cue.ParsePath("suite"))
	if !root.Exists() {
		return nil, &CompileError{
			Field:   "suite",
			Message: "top-level suite field is required",
			Pos:     v.Pos(),
		}
	}

	spec := &Spec{}

	// Name (required)
	nameVal := root.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return nil, &CompileError{
			Field:   "suite.name",
			Message: "name is required",
			Pos:     root.Pos(),
		}
	}
	name, err := nameVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	spec.Name = name

	// Seed (optional, non-negative integer)
	seedVal := root.LookupPath(cue.ParsePath("seed"))
	if seedVal.Exists() {
		seed, err := seedVal.Uint64()
		if err != nil {
			return nil, &CompileError{
				Field:   "suite.seed",
				Message: "seed must be a non-negative integer",
				Pos:     seedVal.Pos(),
			}
		}
		spec.Seed = seed
	}

	// Estimators (required, at least one)
	spec.Estimators, err = stringList(root, "estimators")
	if err != nil {
		return nil, err
	}
	if len(spec.Estimators) == 0 {
		return nil, &CompileError{
			Field:   "suite.estimators",
			Message: "at least one estimator is required",
			Pos:     root.Pos(),
		}
	}

	// Check filters (optional)
	spec.Include, err = stringList(root, "include")
	if err != nil {
		return nil, err
	}
	spec.Exclude, err = stringList(root, "exclude")
	if err != nil {
		return nil, err
	}

	// Ledger path (optional)
	ledgerVal := root.LookupPath(cue.ParsePath("ledger"))
	if ledgerVal.Exists() {
		path, err := ledgerVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		spec.LedgerPath = path
	}

	// Tolerance override (optional, both bounds required together)
	tolVal := root.LookupPath(cue.ParsePath("tolerance"))
	if tolVal.Exists() {
		tol, err := parseTolerance(tolVal)
		if err != nil {
			return nil, err
		}
		spec.Tolerance = tol
	}

	return spec, nil
}

// stringList extracts an optional list of strings from field name.
func stringList(v cue.Value, name string) ([]string, error) {
	listVal := v.LookupPath(cue.ParsePath(name))
	if !listVal.Exists() {
		return nil, nil
	}

	iter, err := listVal.List()
	if err != nil {
		return nil, &CompileError{
			Field:   "suite." + name,
			Message: "must be a list of strings",
			Pos:     listVal.Pos(),
		}
	}

	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// parseTolerance extracts the abs/rel bounds; both are required and must be
// positive.
func parseTolerance(v cue.Value) (*Tolerance, error) {
	tol := &Tolerance{}
	for _, field := range []struct {
		name string
		dst  *float64
	}{
		{"abs", &tol.Abs},
		{"rel", &tol.Rel},
	} {
		fv := v.LookupPath(cue.ParsePath(field.name))
		if !fv.Exists() {
			return nil, &CompileError{
				Field:   "suite.tolerance." + field.name,
				Message: field.name + " is required",
				Pos:     v.Pos(),
			}
		}
		f, err := fv.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if f <= 0 {
			return nil, &CompileError{
				Field:   "suite.tolerance." + field.name,
				Message: fmt.Sprintf("must be positive, got %v", f),
				Pos:     fv.Pos(),
			}
		}
		*field.dst = f
	}
	return tol, nil
}

// CompileError represents a suite compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
