package stack

import (
	"fmt"
	"strings"
	"unicode"

	pstackerrors "stackit.dev/pstack/internal/errors"
)

// maxGeneratedNameLength bounds names derived from commit messages
const maxGeneratedNameLength = 30

// ValidateName checks that name can be used as a single ref component,
// following the rules of git check-ref-format.
func ValidateName(name string) error {
	invalid := func(reason string) error {
		return pstackerrors.NewInvalidPatchNameError(name, reason)
	}
	switch {
	case name == "":
		return invalid("is empty")
	case name == "@":
		return invalid("is reserved")
	case strings.HasPrefix(name, "."), strings.HasPrefix(name, "-"):
		return invalid("must not start with '.' or '-'")
	case strings.HasSuffix(name, "."), strings.HasSuffix(name, ".lock"):
		return invalid("must not end with '.' or '.lock'")
	case strings.Contains(name, ".."), strings.Contains(name, "@{"):
		return invalid("must not contain '..' or '@{'")
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(" ~^:?*[\\/", r) {
			return invalid(fmt.Sprintf("contains invalid character %q", r))
		}
	}
	return nil
}

// MakePatchName derives a patch name from the subject of a commit message.
// taken reports names already in use; a numeric suffix is added on collision.
func MakePatchName(message string, taken func(string) bool) string {
	subject, _, _ := strings.Cut(strings.TrimSpace(message), "\n")

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(subject) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	name := strings.Trim(b.String(), "-")
	if len(name) > maxGeneratedNameLength {
		name = strings.TrimRight(name[:maxGeneratedNameLength], "-")
	}
	if name == "" {
		name = "patch"
	}

	if taken == nil || !taken(name) {
		return name
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d", name, i)
		if !taken(candidate) {
			return candidate
		}
	}
}
