package value

import (
	"encoding/json"
	"fmt"
)

type scopeKindTag int

const (
	scopeKindFile scopeKindTag = iota
	scopeKindFolder
	scopeKindGlob
)

// ScopeKind records the logical selector target (the declared path or
// pattern), independent of how many concrete files it expanded to.
type ScopeKind struct {
	tag  scopeKindTag
	path string
}

// FileKind creates a scope kind targeting a single file path.
func FileKind(path string) ScopeKind {
	return ScopeKind{tag: scopeKindFile, path: path}
}

// FolderKind creates a scope kind targeting a directory.
func FolderKind(path string) ScopeKind {
	return ScopeKind{tag: scopeKindFolder, path: path}
}

// GlobKind creates a scope kind targeting a glob pattern.
func GlobKind(pattern string) ScopeKind {
	return ScopeKind{tag: scopeKindGlob, path: pattern}
}

// Path returns the declared target path or pattern.
func (k ScopeKind) Path() string { return k.path }

// IsFile reports whether the target is a single file.
func (k ScopeKind) IsFile() bool { return k.tag == scopeKindFile }

// IsFolder reports whether the target is a directory.
func (k ScopeKind) IsFolder() bool { return k.tag == scopeKindFolder }

// IsGlob reports whether the target is a glob pattern.
func (k ScopeKind) IsGlob() bool { return k.tag == scopeKindGlob }

func (k ScopeKind) String() string {
	switch k.tag {
	case scopeKindFolder:
		return fmt.Sprintf("Folder(%s)", k.path)
	case scopeKindGlob:
		return fmt.Sprintf("Glob(%s)", k.path)
	default:
		return fmt.Sprintf("File(%s)", k.path)
	}
}

// MarshalJSON emits the externally tagged form: {"File": path},
// {"Folder": path}, or {"Glob": pattern}.
func (k ScopeKind) MarshalJSON() ([]byte, error) {
	switch k.tag {
	case scopeKindFolder:
		return json.Marshal(map[string]string{"Folder": k.path})
	case scopeKindGlob:
		return json.Marshal(map[string]string{"Glob": k.path})
	default:
		return json.Marshal(map[string]string{"File": k.path})
	}
}

// UnmarshalJSON decodes the externally tagged form. An object carrying none
// of the known tags decodes as File("") rather than failing.
func (k *ScopeKind) UnmarshalJSON(data []byte) error {
	var fields map[string]string
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("scope kind must be an object: %w", err)
	}
	if path, ok := fields["File"]; ok {
		*k = FileKind(path)
		return nil
	}
	if path, ok := fields["Folder"]; ok {
		*k = FolderKind(path)
		return nil
	}
	if pattern, ok := fields["Glob"]; ok {
		*k = GlobKind(pattern)
		return nil
	}
	*k = FileKind("")
	return nil
}

// Scope is the structured result of a selector: the logical target it was
// declared with, the concrete file paths it expanded to, and a resolution
// flag. Resolved true with empty paths means "resolved to nothing"; the
// protocol has no distinct resolution-failure state.
type Scope struct {
	Kind     ScopeKind `json:"kind"`
	Paths    []string  `json:"paths"`
	Resolved bool      `json:"resolved"`
}

// Equal reports deep equality of two scopes, including path order.
func (s Scope) Equal(other Scope) bool {
	if s.Kind != other.Kind || s.Resolved != other.Resolved {
		return false
	}
	if len(s.Paths) != len(other.Paths) {
		return false
	}
	for i := range s.Paths {
		if s.Paths[i] != other.Paths[i] {
			return false
		}
	}
	return true
}

// MarshalJSON emits the wire form, rendering a nil path slice as [] so the
// host never sees a null path list.
func (s Scope) MarshalJSON() ([]byte, error) {
	paths := s.Paths
	if paths == nil {
		paths = []string{}
	}
	type wireScope struct {
		Kind     ScopeKind `json:"kind"`
		Paths    []string  `json:"paths"`
		Resolved bool      `json:"resolved"`
	}
	return json.Marshal(wireScope{Kind: s.Kind, Paths: paths, Resolved: s.Resolved})
}
