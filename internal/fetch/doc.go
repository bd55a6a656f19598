// Package fetch retrieves community pages.
//
// Most sites embed their data in server-rendered markup and are fetched with a
// plain HTTP GET. Sites that build their content in the browser are loaded in
// a headless Chrome instance that lives only for the duration of one page
// load; the rendered DOM is returned as HTML so the same extractors work on
// both kinds of page.
package fetch
