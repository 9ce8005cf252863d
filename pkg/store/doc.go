/*
Package store resolves logical template names to template text.

A Store knows three kinds of template: layouts, pages and partials. Names are
slash separated logical paths ("blog/post"); an empty name resolves to
"default". Lookups are synchronous and uncached. A missing template is
reported as ErrNotFound, wrapped with the kind and name that were requested.

Two implementations are provided: FileStore reads from a directory tree on
disk, SQLStore reads from a SQLite table. Both also implement Catalog, which
adds listing and saving for management tooling.
*/
package store
