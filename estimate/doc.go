// Package estimate predicts the peak memory a decoder needs for an image
// from its header alone, without decoding pixel data.
//
// The estimate is
//
//	ceil((width * height * bitsPerChannel * channels / 8 + Overhead) * Multiplier)
//
// with Overhead = 65536 and Multiplier = 1.65 by default. Missing channel
// counts default to 4 and missing bit depths to 8. Missing files, unreadable
// headers and zero dimensions estimate to zero.
package estimate
