package assembler

import (
	"fmt"
	"strings"

	"github.com/wippyai/callspec/attrs"
	"github.com/wippyai/callspec/decl"
	"github.com/wippyai/callspec/errors"
)

// Raw identifier prefix: r#type is exposed as "type".
const rawPrefix = "r#"

// unraw strips raw identifier escaping.
func unraw(name string) string {
	return strings.TrimPrefix(name, rawPrefix)
}

// externalName resolves the name a declaration is exposed under:
//   - the fixed name of the kind (__new__, __call__)
//   - an explicit override
//   - for accessors, the declaration name with get_/set_ stripped
//   - the declaration name itself, unescaped
//
// The prefix is stripped after unescaping, so r#get_type becomes "type".
func externalName(d *decl.Declaration, c *attrs.Classification) (string, *errors.Error) {
	rules := c.Kind.Rules()

	if rules.FixedName != "" {
		return rules.FixedName, nil
	}
	if c.Name != nil {
		return c.Name.Name, nil
	}

	name := unraw(d.Name)
	if rules.NamePrefix != "" {
		if rest, ok := strings.CutPrefix(name, rules.NamePrefix); ok {
			if rest == "" {
				return "", errors.AmbiguousName(d.Pos,
					fmt.Sprintf("cannot derive a property name from %q; the name is only the %q prefix, use #[%s(name)]",
						d.Name, rules.NamePrefix, c.Kind))
			}
			name = rest
		}
	}

	switch {
	case name == "":
		return "", errors.AmbiguousName(d.Pos, "declaration has no name")
	case strings.ContainsRune(name, 0):
		return "", errors.New(errors.PhaseAssemble, errors.KindInvalidInput).
			At(d.Pos).
			Path(d.Name).
			Detail("external name %q must not contain a NUL character", name).
			Build()
	}
	return name, nil
}
