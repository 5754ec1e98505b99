// Package statemachine folds check run outcomes into the Check status
// document: attempt counting, retry vs. escalation decisions, and
// recovery detection. It is pure; persistence and escalation delivery
// are the reconciler's job.
package statemachine
