/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package uefa

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed potfile.cue
var potFileSchemaSrc string

var (
	schemaOnce sync.Once
	schemaMu   sync.Mutex
	cueCtx     *cue.Context
	potFileDef cue.Value
	schemaErr  error
)

func potFileSchema() (*cue.Context, cue.Value, error) {
	schemaOnce.Do(func() {
		cueCtx = cuecontext.New()
		v := cueCtx.CompileString(potFileSchemaSrc,
			cue.Filename("potfile.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("unable to compile pot file schema: %w", err)
			return
		}
		potFileDef = v.LookupPath(cue.ParsePath("#PotFile"))
	})
	return cueCtx, potFileDef, schemaErr
}

// validatePotFile checks a decoded YAML document against the #PotFile
// definition.
func validatePotFile(doc any) error {
	ctx, def, err := potFileSchema()
	if err != nil {
		return err
	}

	// a cue.Context is not safe for concurrent use
	schemaMu.Lock()
	defer schemaMu.Unlock()

	data := ctx.Encode(doc)
	if err := data.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPots, err)
	}
	if err := def.Unify(data).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPots, err)
	}
	return nil
}
