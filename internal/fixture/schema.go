package fixture

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/irrlab/phigold/internal/codec"
)

//go:embed document.cue
var schemaSource string

var (
	schemaOnce  sync.Once
	schemaValue cue.Value
	schemaErr   error
)

// documentSchema compiles the embedded schema once and returns the
// #Document definition.
func documentSchema() (cue.Value, error) {
	schemaOnce.Do(func() {
		ctx := cuecontext.New()
		v := ctx.CompileString(schemaSource, cue.Filename("document.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("compile document schema: %w", err)
			return
		}
		schemaValue = v.LookupPath(cue.ParsePath("#Document"))
		if err := schemaValue.Err(); err != nil {
			schemaErr = fmt.Errorf("lookup #Document: %w", err)
		}
	})
	return schemaValue, schemaErr
}

// ValidateDocument checks document bytes against the wire format schema.
//
// Schema violations come back as PARSE_ERROR with the offending position
// in Details when CUE can point at one. This runs on raw bytes and needs
// no registry: it validates the envelope, not the payload semantics.
func ValidateDocument(data []byte) error {
	schema, err := documentSchema()
	if err != nil {
		return err
	}

	expr, err := cuejson.Extract("document.json", data)
	if err != nil {
		return codec.NewParseError(fmt.Sprintf("document is not valid JSON: %v", err), nil)
	}

	doc := schema.Context().BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return cueToParseError(err)
	}

	if err := schema.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return cueToParseError(err)
	}
	return nil
}

// cueToParseError maps a CUE validation error into the codec taxonomy,
// carrying the first reported position.
func cueToParseError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return codec.NewParseError(fmt.Sprintf("document does not match the wire format: %v", err), nil)
	}

	first := errs[0]
	var details map[string]string
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		pos := positions[0]
		details = map[string]string{
			"position": fmt.Sprintf("%s:%d:%d", pos.Filename(), pos.Line(), pos.Column()),
		}
	}
	return codec.NewParseError(
		fmt.Sprintf("document does not match the wire format: %v", first),
		details,
	)
}
