// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package ai defines the AI service abstractions used by aetheris.
//
// Two collaborators are abstracted: an Embedder (text to vector, satisfied
// by either the local TF-IDF vectorizer or a remote transformer service)
// and a Generator (prompt to answer). Prompt templating from a retrieved
// ContextBundle also lives here, one template per query intent.
//
// Sub-packages provide implementations:
//   - openai: OpenAI-compatible API clients (Ollama, LocalAI, vLLM, etc.)
//   - mock: deterministic test doubles
package ai
