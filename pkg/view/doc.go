/*
Package view composes pages from a layout, a page body and named partials.

An Engine loads its templates from a store.Store and renders them in two
stages. First, static tokens of the form {#NAME#} are replaced by literal
text in the layout and every body, and any token left over is removed.
Second, the bodies are executed as snippet templates against a shared
scope built from the dynamic variables and the data passed to Compose.
Partials run first, most recently added first, then the page, then the
layout. Each body's output is added to the scope under the body's name, so
the page can print a partial and the layout prints the page with

	<?= appPage ?>

An Engine is not safe for concurrent use. Create one per composition, or
serialise calls.
*/
package view
