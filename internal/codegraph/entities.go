package codegraph

import "path/filepath"

// File is a source file node. A file is identified by its directory
// path, base name, and extension.
type File struct {
	ID   int64
	Path string
	Name string
	Ext  string
}

// FileRef identifies a file without node identity; used for deletions
// and lookups.
type FileRef struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Ext  string `json:"ext"`
}

// NewFileRef splits a repository-relative path into its graph identity.
func NewFileRef(rel string) FileRef {
	dir := filepath.Dir(rel)
	if dir == "." {
		dir = ""
	}
	return FileRef{
		Path: dir,
		Name: filepath.Base(rel),
		Ext:  filepath.Ext(rel),
	}
}

// Class is a class declaration node.
type Class struct {
	ID       int64
	Path     string
	Name     string
	Doc      string
	SrcStart int
	SrcEnd   int
}

// Argument is a function parameter.
type Argument struct {
	Name string
	Type string
}

// Function is a function or method declaration node.
type Function struct {
	ID       int64
	Path     string
	Name     string
	Doc      string
	RetType  string
	Src      string
	SrcStart int
	SrcEnd   int
	Args     []Argument
}

// AddArgument appends a parameter to the function signature.
func (f *Function) AddArgument(name, typ string) {
	f.Args = append(f.Args, Argument{Name: name, Type: typ})
}
