// Package dataset implements the tabular data model for the credit-approval
// missing-data study.
//
// A Table is an immutable, fixed-schema, ordered collection of records loaded
// from a headerless delimited file. Columns are named positionally (A1..A16
// for the credit screening data). Missing values in the source file are
// encoded with a sentinel character and normalized at load time to the
// package-level Missing marker; everything downstream tests cells against
// that marker only.
//
// The package covers three concerns:
//
//   - loader.go: reading the delimited file into a Table, failing fast on
//     absent files and rows with the wrong field count
//   - table.go: the Table value type with schema accessors, row filtering
//     and complete-case extraction
//   - encode.go: the numeric-conversion contract and the model-matrix
//     encoding (nominal columns label-encoded, missing cells as NaN)
//     consumed by the tree and imputation packages
package dataset
