// Package tether models the E-sail wire as a chain of point masses joined by
// distance constraints.
//
// A Chain is split into a stowed prefix that turns rigidly with the
// spacecraft body and a deployed suffix that is integrated freely. Deploy
// and Retract move elements across the boundary one at a time, so the two
// sets always partition the chain. Build with -tags esail_debug to check the
// partition after every mutation.
package tether
