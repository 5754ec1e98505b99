// Package controller contains the Check reconciler and the periodic
// sanity monitor. The reconciler is the only writer of Check status.
package controller
