package browser

import (
	"fmt"
	"strings"

	"github.com/axeflow/axeflow/internal/domain"
)

// query is a resolved element lookup: a CSS selector or an XPath expression.
type query struct {
	expr  string
	xpath bool
}

// queryFor translates a target into a DOM query. Text, label and role lookups
// become XPath; the rest stay CSS.
func queryFor(t domain.Target) (query, error) {
	switch {
	case t.TestID != "":
		return query{expr: fmt.Sprintf(`[data-testid=%s]`, cssString(t.TestID))}, nil
	case t.CSS != "":
		return query{expr: t.CSS}, nil
	case t.Placeholder != "":
		if t.Exact {
			return query{expr: fmt.Sprintf(`[placeholder=%s]`, cssString(t.Placeholder))}, nil
		}
		return query{expr: fmt.Sprintf(`[placeholder*=%s i]`, cssString(t.Placeholder))}, nil
	case t.Text != "":
		return query{expr: fmt.Sprintf(`//*[text()[%s]]`, textMatch(".", t.Text, t.Exact)), xpath: true}, nil
	case t.Label != "":
		return query{expr: labelXPath(t.Label, t.Exact), xpath: true}, nil
	case t.Role != "":
		return roleXPath(t.Role, t.Name, t.Exact)
	}
	return query{}, fmt.Errorf("target has no locator")
}

func labelXPath(label string, exact bool) string {
	m := textMatch(".", label, exact)
	return fmt.Sprintf(
		`//*[@aria-label][%s] | //*[@id = //label[%s]/@for] | //label[%s]//*[self::input or self::select or self::textarea]`,
		textMatch("@aria-label", label, exact), m, m,
	)
}

var implicitRoles = map[string]string{
	"button":   `self::button or (self::input and (@type='submit' or @type='button' or @type='reset'))`,
	"link":     `self::a[@href]`,
	"textbox":  `(self::input and (not(@type) or @type='text' or @type='email' or @type='tel' or @type='url' or @type='search' or @type='password' or @type='number')) or self::textarea`,
	"checkbox": `self::input[@type='checkbox']`,
	"radio":    `self::input[@type='radio']`,
	"combobox": `self::select`,
	"heading":  `self::h1 or self::h2 or self::h3 or self::h4 or self::h5 or self::h6`,
	"img":      `self::img`,
}

func roleXPath(role, name string, exact bool) (query, error) {
	role = strings.ToLower(role)
	pred := fmt.Sprintf(`@role=%s`, xpathLiteral(role))
	if implicit, ok := implicitRoles[role]; ok {
		pred = fmt.Sprintf(`%s or (not(@role) and (%s))`, pred, implicit)
	}
	expr := fmt.Sprintf(`//*[%s]`, pred)
	if name == "" {
		return query{expr: expr, xpath: true}, nil
	}

	names := []string{
		textMatch(".", name, exact),
		textMatch("@aria-label", name, exact),
		textMatch("@value", name, exact),
		textMatch("@title", name, exact),
		textMatch("@alt", name, exact),
		fmt.Sprintf(`@id = //label[%s]/@for`, textMatch(".", name, exact)),
		fmt.Sprintf(`ancestor::label[%s]`, textMatch(".", name, exact)),
	}
	return query{expr: fmt.Sprintf(`%s[%s]`, expr, strings.Join(names, " or ")), xpath: true}, nil
}

// textMatch compares the whitespace-normalized value of node against s.
// Non-exact matches are case-insensitive substring matches.
func textMatch(node, s string, exact bool) string {
	if exact {
		return fmt.Sprintf(`normalize-space(%s)=%s`, node, xpathLiteral(s))
	}
	const upper, lower = "ABCDEFGHIJKLMNOPQRSTUVWXYZ", "abcdefghijklmnopqrstuvwxyz"
	return fmt.Sprintf(`contains(translate(normalize-space(%s), '%s', '%s'), %s)`,
		node, upper, lower, xpathLiteral(strings.ToLower(strings.TrimSpace(s))))
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, `'`) {
		return `'` + s + `'`
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		if p != "" {
			quoted = append(quoted, `"`+p+`"`)
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

func cssString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
