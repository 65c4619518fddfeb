// Package variant defines the closed vocabulary of unit-test variants, their
// canonical priority order, and the parsing of user selections such as
// "all" or "std,restart" into validated variant lists.
package variant
