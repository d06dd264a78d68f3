// Package domain implements the interview session lifecycle: timed
// questions, answer submission, completion, and the dual internal/public
// status state machine whose public transitions dispatch candidate
// notifications.
package domain
