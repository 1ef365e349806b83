// Package fusion stabilizes the output of several weak object detectors.
//
// Each detector looks at a different transform of the same frame and reports
// at most one box per frame. Boxes from different sources whose centers agree
// are merged into candidates, and a small circular window of past cycles
// decides which candidate is confirmed and what is reported for the frame.
//
// An Evaluator is owned by a single goroutine. It is not safe for concurrent
// use; hand its results to other goroutines explicitly.
package fusion
