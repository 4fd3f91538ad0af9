// Package parsing turns free-form personalization text into structured
// name lists using a chat completion model. It builds compact prompts from
// stored order items, normalizes the model's JSON reply, and runs the
// batch stage that persists results.
package parsing
