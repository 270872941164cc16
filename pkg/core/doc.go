/*
Package core implements certified operations and the combinators that compose them.

A Transformation is a deterministic data-to-data function together with a stability relation: a
predicate (d_in, d_out) that certifies that inputs at most d_in apart under the input metric yield
outputs at most d_out apart under the output metric. A Measurement is a possibly randomized release
function with a privacy relation certifying that inputs d_in apart incur at most d_out privacy
loss under the output measure.

Operations are immutable once built. The combinators MakeTTChain, MakeMTChain, MakeComposition and
MakePostprocess consume operations and return new ones, checking boundary domains and metrics at
construction time. A chain carries a proof only if the caller supplies an explicit Hint that picks
the midpoint distance: without a hint every relation evaluation fails as unprovable.
*/
package core
