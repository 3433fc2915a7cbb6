// Package util provides small statistics helpers used to summarise the value
// sizes of a bucket without keeping the values themselves.
package util
