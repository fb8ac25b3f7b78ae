// Package cache derives the on-disk identity of an image derivative.
//
// It provides a KeyDeriver that digests transform parameters into a
// fixed-length key, and a PathResolver that places a derivative at
//
//	{base}/cache/{store}/{destination}/[{width}x{height}/]{key}{relative path}
//
// Both are pure: they never touch the filesystem. The key encoding and the
// segment order are compatible with existing cache trees and must not change.
package cache
