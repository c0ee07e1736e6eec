// Package pcm converts between interleaved sample slices and little-endian
// byte streams for the two supported wire formats: 16-bit signed integer and
// 32-bit IEEE float.
package pcm
