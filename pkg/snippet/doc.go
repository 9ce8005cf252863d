/*
Package snippet splits template bodies into literal text and embedded code
snippets and executes them against a mutable variable scope.

Two snippet forms are recognised:

	<?= expr ?>    echo: the value of expr is written to the output
	<? stmts ?>    statements: run for their effect on the scope

An opening "<?" that is not followed by "=" or whitespace (for example
"<?xml") is literal text. Snippets do not nest. The closing delimiter ends
a snippet unless it appears inside a double-quoted string.

What a snippet means is decided by an Evaluator. HCL is the bundled
evaluator: echoes are HCL expressions, including string templates with
%{if} and %{for} directives, and statements are HCL attribute assignments
that write back into the scope, so later snippets and later bodies see the
new values.
*/
package snippet
