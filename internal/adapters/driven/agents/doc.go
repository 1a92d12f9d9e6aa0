// Package agents implements the Generator and Critic ports on top of an
// LLMService: the Writer rewrites chapters and the Reviewer critiques them.
// Both share a RateLimiter so a single provider quota is respected across
// concurrently revised chapters.
package agents
