package eval

import (
	"os"

	"github.com/gopa-lang/gopa/internal/object"
	"github.com/gopa-lang/gopa/internal/perm"
)

func (in *Interp) readFile(line int, path string) (object.Value, error) {
	if err := in.perms.Check(perm.Files); err != nil {
		return object.Nothing, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return object.Nothing, errf(ErrFile, line, "cannot read %q: %v", path, err)
	}
	return object.String(string(data)), nil
}

func (in *Interp) writeFile(line int, path string, v object.Value) error {
	if err := in.perms.Check(perm.Files); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(v.String()), 0o644); err != nil {
		return errf(ErrFile, line, "cannot write %q: %v", path, err)
	}
	return nil
}
