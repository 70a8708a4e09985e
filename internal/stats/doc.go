// Package stats is the statistics engine behind the calculators: special
// functions (log-gamma, incomplete beta and gamma), distribution tails,
// sample size and runtime estimation, two-group significance tests and KPI
// volatility analysis with uplift targets.
//
// Every function is pure. Inputs are plain numbers; parsing and validation of
// user-entered text happens in package form.
package stats
