// Package gemver implements RubyGems version numbers and requirements.
//
// # Versions
//
// A [Version] is a dotted sequence of numeric and alphabetic segments.
// Numeric segments compare numerically, alphabetic segments lexically, and
// an alphabetic segment always sorts before a numeric one at the same
// position. Any version with an alphabetic segment is a prerelease, so
// "1.0.0.rc1" < "1.0.0". Missing trailing segments count as zero, making
// "1.0" and "1.0.0" equal.
//
// # Requirements
//
// A [Requirement] is a conjunction of constraints using the operators
// =, !=, >, <, >=, <= and the pessimistic ~>:
//
//	~> 2.3    means  >= 2.3,   < 3
//	~> 2.3.1  means  >= 2.3.1, < 2.4
//	~> 2      means  >= 2,     < 3
//
// # Sets
//
// A [Set] is the interval algebra the resolver works in. Every requirement
// converts to a set with [Requirement.Set], and sets support intersection,
// union, complement and the subset and disjointness checks needed to
// relate resolver terms to one another.
package gemver
