// Package template expands the positional placeholder strings the
// catalogue uses for trigger and action definitions: a channel kind
// declares one boolean/assignment template per trigger or action with
// `{0}`, `{1}`, ... placeholders, and each bound rule supplies the
// argument list that fills them in, the same way a parameterized IFTTT
// recipe instantiates its generic "if {0} then {1}" shape per rule.
package template

import (
	"fmt"
	"strconv"
	"strings"
)

// Expand substitutes each `{n}` placeholder in tpl with args[n], matching
// Python's str.format(*args) positional behavior used throughout the
// catalogue (Trigger/Action/Controller's device/variable templates).
func Expand(tpl string, args []string) (string, error) {
	var b strings.Builder
	i := 0
	for i < len(tpl) {
		if tpl[i] != '{' {
			b.WriteByte(tpl[i])
			i++
			continue
		}
		end := strings.IndexByte(tpl[i:], '}')
		if end < 0 {
			return "", fmt.Errorf("template: unterminated placeholder in %q", tpl)
		}
		end += i
		idxText := tpl[i+1 : end]
		idx, err := strconv.Atoi(idxText)
		if err != nil {
			return "", fmt.Errorf("template: non-numeric placeholder {%s} in %q", idxText, tpl)
		}
		if idx < 0 || idx >= len(args) {
			return "", fmt.Errorf("template: placeholder {%d} out of range for %d argument(s) in %q", idx, len(args), tpl)
		}
		b.WriteString(args[idx])
		i = end + 1
	}
	return b.String(), nil
}

// Arity reports how many positional arguments tpl needs: one more than
// the highest placeholder index it references (so `{0} {2}` needs 3), or
// 0 when it has none, for catalogue validation against a trigger/action's declared parameter
// count before any rule ever tries to bind it.
func Arity(tpl string) (int, error) {
	max := -1
	i := 0
	for i < len(tpl) {
		if tpl[i] != '{' {
			i++
			continue
		}
		end := strings.IndexByte(tpl[i:], '}')
		if end < 0 {
			return 0, fmt.Errorf("template: unterminated placeholder in %q", tpl)
		}
		end += i
		idx, err := strconv.Atoi(tpl[i+1 : end])
		if err != nil {
			return 0, fmt.Errorf("template: non-numeric placeholder in %q", tpl)
		}
		if idx > max {
			max = idx
		}
		i = end + 1
	}
	return max + 1, nil
}
