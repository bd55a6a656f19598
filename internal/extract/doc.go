// Package extract turns fetched community pages into raw events and profiles.
//
// There is one extractor per site kind. Extractors are pure: they read the
// page they are given and nothing else. A field that cannot be located is
// left empty (or set to its placeholder) so that one malformed item never
// prevents its siblings from being extracted, and a page with no events is a
// valid, non-error result.
package extract
