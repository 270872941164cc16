// Package value implements the runtime-typed data values consumed and produced by
// transformations and measurements.
//
// A Value is one of three shapes:
//   - Scalar: a single atomic value of a fixed Kind, optionally nullable.
//   - Vector: a homogeneous sequence of scalars of one kind and nullability.
//   - Dataframe: an ordered mapping from column key to Value.
//
// Operations that only make sense for a subset of kinds take the narrowed forms NumericScalar,
// NumericVector, CategoricalScalar and CategoricalVector. Narrowing (ToNumeric, ToCategorical)
// fails with dperr.ErrAtomicMismatch outside the subset, widening (ToScalar, ToVector) is total.
// There is no implicit coercion between numeric widths.
package value
