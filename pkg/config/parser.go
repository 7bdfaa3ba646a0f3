package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"github.com/go-playground/validator/v10"
)

// definitionPath is the top-level field a definition lives under.
const definitionPath = "inventory"

// Parser loads and validates CUE inventory definitions.
type Parser struct {
	ctx      *cue.Context
	validate *validator.Validate
}

// NewParser creates a new definition parser.
func NewParser() *Parser {
	return &Parser{
		ctx:      cuecontext.New(),
		validate: validator.New(),
	}
}

// Load compiles the given sources (files or directories), unifies
// them, and decodes the inventory definition. Directories contribute
// every .cue file they transitively contain.
func (p *Parser) Load(sources ...string) (*Definition, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("config: no sources provided")
	}

	var files []string
	for _, source := range sources {
		info, err := os.Stat(source)
		if err != nil {
			return nil, fmt.Errorf("config: failed to stat source %s: %w", source, err)
		}
		if !info.IsDir() {
			files = append(files, source)
			continue
		}

		found, err := listCUEFiles(source)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("config: no CUE files found in %s", strings.Join(sources, ", "))
	}

	var unified cue.Value
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("config: failed to read %s: %w", file, err)
		}

		val := p.ctx.CompileBytes(content, cue.Filename(file))
		if err := val.Err(); err != nil {
			return nil, convertCUEError(err)
		}

		if unified.Exists() {
			unified = unified.Unify(val)
		} else {
			unified = val
		}
	}

	if err := unified.Err(); err != nil {
		return nil, convertCUEError(err)
	}
	return p.decode(unified)
}

// LoadInline parses a definition from in-memory CUE content.
func (p *Parser) LoadInline(content string) (*Definition, error) {
	val := p.ctx.CompileString(content, cue.Filename("inline"))
	if err := val.Err(); err != nil {
		return nil, convertCUEError(err)
	}
	return p.decode(val)
}

// decode extracts and validates the definition from a CUE value.
func (p *Parser) decode(val cue.Value) (*Definition, error) {
	defVal := val.LookupPath(cue.ParsePath(definitionPath))
	if !defVal.Exists() {
		return nil, fmt.Errorf("config: no %q field in definition", definitionPath)
	}

	var def Definition
	if err := defVal.Decode(&def); err != nil {
		return nil, fmt.Errorf("config: failed to decode definition: %w", convertCUEError(err))
	}

	if err := p.validate.Struct(&def); err != nil {
		return nil, fmt.Errorf("config: definition validation failed: %w", err)
	}

	return &def, nil
}

// listCUEFiles walks a directory collecting .cue files.
func listCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".cue") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("config: failed to walk directory: %w", err)
	}
	return files, nil
}

// convertCUEError flattens a CUE error list into one error carrying
// file positions.
func convertCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	var details []string
	for _, e := range errs {
		msg := e.Error()
		if pos := errors.Positions(e); len(pos) > 0 {
			msg = fmt.Sprintf("%s:%d:%d: %s",
				pos[0].Filename(), pos[0].Line(), pos[0].Column(), msg)
		}
		details = append(details, msg)
	}
	return fmt.Errorf("config: %s", strings.Join(details, "; "))
}
