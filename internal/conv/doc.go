// Package conv holds checked integer conversions for fixed-width snapshot
// header fields.
package conv
