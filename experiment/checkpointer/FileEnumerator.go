package checkpointer

import (
	"fmt"
	"strings"
)

// fileEnumerator enumerates filenames
type fileEnumerator struct {
	i         int
	name      string
	extension string
}

// filename returns the name of the next consecutive enumerated file
func (f *fileEnumerator) filename() string {
	f.i++
	return fmt.Sprintf("%v-%v.%v", f.name, f.i, f.extension)
}

// FilenameEnumerator returns a function which returns filenames with a
// counter suffix, name-1.ext, name-2.ext, and so on starting after
// start. The extension may be given with or without its leading dot.
func FilenameEnumerator(start int, filename, extension string) func() string {
	enum := fileEnumerator{
		i:         start,
		name:      filename,
		extension: strings.TrimPrefix(extension, "."),
	}

	return enum.filename
}
