package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// catalogueDiagnostic converts a catalogue compilation error into a
// whole-document diagnostic. Unlike kanso's parser, internal/catalog's
// go-multierror-accumulated errors carry no line/column — the error
// already names the offending variable/trigger/action, so the
// diagnostic spans the first line and lets the message carry the
// detail, rather than the teacher's precise per-token span.
func catalogueDiagnostic(err error) protocol.Diagnostic {
	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   protocol.Position{Line: 0, Character: 1},
		},
		Severity: ptrSeverity(protocol.DiagnosticSeverityError),
		Source:   ptrString("safechain-catalogue"),
		Message:  err.Error(),
	}
}

// conditionDiagnostic converts a condition-parse error at line i into
// a diagnostic spanning that line, since cond.Parse's underlying
// participle error does not surface a reusable column.
func conditionDiagnostic(line uint32, text string, err error) protocol.Diagnostic {
	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: line, Character: 0},
			End:   protocol.Position{Line: line, Character: uint32(len(text))},
		},
		Severity: ptrSeverity(protocol.DiagnosticSeverityError),
		Source:   ptrString("safechain-condition"),
		Message:  err.Error(),
	}
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func ptrString(s string) *string {
	return &s
}
