// Package translations manages translation requests for works.
//
// A translator or editor opens a request for a (work, language) pair and is
// recorded as its translator. The translator then moves it through
// pending, in_progress and completed; the work's author approves or rejects
// the completed result. Policy.CanTransition enforces who may do what.
package translations
