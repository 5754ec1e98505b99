// Package scheduler decides, without any I/O, whether a Check is due to
// run and when it should run next. Keeping the decision pure makes the
// interval semantics directly testable against the CRD contract.
package scheduler
