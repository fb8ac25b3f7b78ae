// Package resolve picks the source image for a derivative request.
//
// A Resolver normalizes the requested path, checks the source exists, treats
// an existing cached derivative as admitted, asks an Admitter whether
// decoding the source fits the memory budget, and otherwise substitutes a
// placeholder: the store configured placeholder under the media directory,
// then the skin placeholder of the current theme, the default theme and the
// base package. The returned Resolution names the source to render from and
// the cache path the render pipeline writes to.
//
// Resolution is synchronous and holds no state between requests. Concurrent
// admissions read the same live memory usage and may together exceed the
// limit; the cache path probe is advisory and does not reserve the path.
package resolve
