// Package rpn derives Risk Priority Numbers from failure-mode ratings.
//
// Every function is pure: results depend only on the arguments, and the RPN
// thresholds are passed in explicitly (usually from the organization's
// settings) rather than read from global state.
//
// The worst-case rule: a failure mode's RPN is the maximum, over every
// (cause, effect) pair, of severity × occurrence × detection, where detection
// is the best (lowest) rating among its controls, or 10 when it has none.
package rpn
