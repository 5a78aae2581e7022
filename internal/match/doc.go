// package match implements fuzzy track resolution against a destination
// catalog: a deterministic candidate scorer and a resolver that ranks
// provider search results.
//
// Matching works on free text only (title, primary artist); there is no
// shared identifier between catalogs.
package match
