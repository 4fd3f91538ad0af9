// Package payload extracts normalized columns from raw order item
// payloads. The feed mixes camelCase and snake_case keys and sometimes
// delivers nested sub-payloads as JSON-encoded strings, so every accessor
// runs a fixed priority cascade and tolerates both spellings. Extraction
// is pure and never fails: unusable values degrade to zero values.
package payload
