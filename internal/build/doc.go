// Package build runs one-shot builds: scan the content tree, build a page
// map per locale, compile route tables and every document, then write all
// artifacts into a staging directory that replaces the output only when
// every stage succeeded.
//
// The index stages (scan, page map, routes) are also used on their own by
// the development server, which compiles documents lazily.
package build
