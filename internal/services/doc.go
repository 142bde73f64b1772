// Package services provides shared plumbing for components that do real
// work: sentinel error markers with context-preserving wrapping, and
// context annotation helpers for correlating log lines with the subject
// and unit being processed.
package services
