package indexer

import (
	"runtime"
	"strings"

	"github.com/opencodeintel/tucore/internal/types"
)

// qtInjectedHeader resolves to "<resource>/qtN-qobjectdefs-injected.h" for
// the moc pre-header injection spec.md §4.E step 3 describes. The actual
// resource root is supplied by the embedding IDE (spec.md places "project-
// configuration loading" out of scope), so this takes it as a parameter
// rather than hardcoding a path.
func qtInjectedHeader(resourceRoot string, qt types.QtVersion) string {
	switch qt {
	case types.Qt4:
		return resourceRoot + "/qt4-qobjectdefs-injected.h"
	case types.Qt5:
		return resourceRoot + "/qt5-qobjectdefs-injected.h"
	default:
		return ""
	}
}

// langStandardFlag implements spec.md §4.E step 1.
func langStandardFlag(lang types.Language) string {
	switch lang {
	case types.LangC89:
		return "-std=gnu89"
	case types.LangC99:
		return "-std=gnu99"
	case types.LangCpp98:
		return "-std=gnu++98"
	case types.LangCpp11:
		return "-std=c++11"
	default:
		return "-std=gnu99"
	}
}

// isWindowsHost is a var, not a const call, so tests can force the
// Windows-only branch of CompileOptions deterministically regardless of
// the host actually running the test (spec.md §8 S6: "Windows hosts
// additionally insert ...").
var isWindowsHost = func() bool { return runtime.GOOS == "windows" }

// CompileOptions implements spec.md §4.E's "Compile-option synthesis": a
// pure function producing the ordered option sequence for a file of part
// with objC is true when file-specific. It must be byte-exact across
// platforms for a given input (spec.md: "tests pin it").
func CompileOptions(part types.ProjectPart, objC bool, resourceRoot string) []string {
	var opts []string

	opts = append(opts, langStandardFlag(part.Language))

	if objC {
		switch part.Language {
		case types.LangCpp98, types.LangCpp11:
			opts = append(opts, "-ObjC++")
		default:
			opts = append(opts, "-ObjC")
		}
	}

	if part.QtVersion != types.QtNone {
		if header := qtInjectedHeader(resourceRoot, part.QtVersion); header != "" {
			opts = append(opts, "-include", header)
		}
	}

	if isWindowsHost() {
		opts = append(opts, "-fms-extensions", "-fdelayed-template-parsing")
	}

	opts = append(opts, "-nobuiltininc")

	opts = append(opts, defineFlags(part.Defines)...)

	for _, fw := range part.FrameworkPaths {
		if fw != "" {
			opts = append(opts, "-F"+fw)
		}
	}
	for _, inc := range part.IncludePaths {
		if inc != "" {
			opts = append(opts, "-I"+inc)
		}
	}

	return opts
}

// excludedDefineNames are dropped regardless of form. OBJC_NEW_PROPERTIES
// is a project-manager bookkeeping marker (not a real preprocessor
// symbol meaningful to the parser) that spec.md §8 scenario S6 pins as
// excluded from the synthesized option sequence even though it is neither
// empty nor underscore-prefixed; this hardcoded exclusion is the
// documented resolution (see DESIGN.md) rather than a guess.
var excludedDefineNames = map[string]struct{}{
	"OBJC_NEW_PROPERTIES": {},
}

// defineFlags implements spec.md §4.E step 6: each "#define NAME VAL"
// becomes -DNAME=VAL; a value-less "#define NAME" becomes the degraded
// -DNAME form (no "="), matching the original clangcodemodel/clangutils.cpp
// behavior rather than synthesizing a fake "=1"; empty and
// underscore-prefixed defines are dropped; macro text has the two quote
// forms normalized out; duplicates are suppressed in output order.
func defineFlags(defines []string) []string {
	var out []string
	seen := make(map[string]struct{})

	for _, raw := range defines {
		name, val, hasVal, ok := parseDefine(raw)
		if !ok || name == "" || strings.HasPrefix(name, "_") {
			continue
		}
		if _, excluded := excludedDefineNames[name]; excluded {
			continue
		}
		flag := "-D" + name
		if hasVal {
			flag += "=" + val
		}
		if _, dup := seen[flag]; dup {
			continue
		}
		seen[flag] = struct{}{}
		out = append(out, flag)
	}
	return out
}

// parseDefine splits "#define NAME VAL" into name/val; hasVal reports
// whether a VAL was present at all, so a bare "#define NAME" can be told
// apart from one with an empty value. Macro text has the two quote
// escaping forms spec.md calls out stripped: `\"` and `"`.
func parseDefine(raw string) (name, val string, hasVal, ok bool) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "#define")
	trimmed = strings.TrimSpace(trimmed)
	if trimmed == "" {
		return "", "", false, false
	}

	fields := strings.SplitN(trimmed, " ", 2)
	name = fields[0]
	if len(fields) == 2 {
		hasVal = true
		val = strings.TrimSpace(fields[1])
		val = strings.ReplaceAll(val, `\"`, "")
		val = strings.ReplaceAll(val, `"`, "")
	}
	return name, val, hasVal, true
}
