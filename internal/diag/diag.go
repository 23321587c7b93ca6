// Package diag carries the non-fatal warning values that every pipeline
// stage accumulates and returns to the caller instead of raising.
package diag

import "fmt"

// Warning records a recovered, non-fatal condition from one pipeline stage.
//
// Warnings are collected in order of occurrence and handed back to the
// caller as data; they are never turned into errors by the engine itself.
type Warning struct {
	// Stage names the pipeline stage that recovered the condition,
	// e.g. "registry", "merge", "classify", "layers", "mesh".
	Stage string `json:"stage"`

	// Code is a stable machine-readable identifier such as
	// "recipe-ambiguity", "merge-conflict" or "classification-failure".
	Code string `json:"code"`

	// Message is the human-readable description.
	Message string `json:"message"`
}

// Warningf builds a Warning with a formatted message.
func Warningf(stage, code, format string, args ...interface{}) Warning {
	return Warning{Stage: stage, Code: code, Message: fmt.Sprintf(format, args...)}
}

func (w Warning) String() string {
	return fmt.Sprintf("%s/%s: %s", w.Stage, w.Code, w.Message)
}
