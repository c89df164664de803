// Package classifier applies the three per-identifier heuristics (rate,
// length and data) to decoded frames.
//
// The checks deliberately keep the semantics of the deployed detector, which
// are the inverse of the usual flood-detection intuition: a frame arriving
// within the normal period, a frame whose length did not change, and a frame
// that repeats any byte of its predecessor all count as failures. Only the
// first frame of an identifier, a gap longer than TMax, a changed length and
// a fully disjoint payload pass.
package classifier
