// Package openai provides ai service implementations backed by
// OpenAI-compatible APIs (Ollama, LocalAI, vLLM, OpenAI itself).
package openai
