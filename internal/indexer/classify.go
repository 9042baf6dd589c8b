package indexer

import "strings"

// implementationExtensions implements spec.md §4.E's "File classification":
// "Implementation files: .c .cc .cpp .cxx .m .mm. Everything else is
// treated as a header."
var implementationExtensions = map[string]struct{}{
	".c":   {},
	".cc":  {},
	".cpp": {},
	".cxx": {},
	".m":   {},
	".mm":  {},
}

// IsImplementationFile reports whether path's extension (matched
// case-insensitively) marks it as an implementation file; everything else,
// including unknown-suffix standard-library headers, is a header.
func IsImplementationFile(path string) bool {
	ext := extensionOf(path)
	_, ok := implementationExtensions[strings.ToLower(ext)]
	return ok
}

func extensionOf(path string) string {
	dot := strings.LastIndexByte(path, '.')
	if dot < 0 {
		return ""
	}
	return path[dot:]
}
