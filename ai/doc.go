// Copyright 2026 Openquill
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

// Package ai provides abstractions for the AI services ThreadLens depends on.
//
// This package defines interfaces for text embeddings, document metadata
// extraction, query intent analysis, and streaming answer generation. The
// rest of the system depends on these abstractions rather than on concrete
// implementations.
//
// # Implementation Packages
//
// The ai package includes two implementation sub-packages:
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors in ai/openai return interface types to enforce
// abstraction. Mock constructors return concrete types so tests can inject
// behavior and assert on call counts.
//
// # Error Classification
//
// Implementations classify failures as transient (rate limits, timeouts,
// connection errors) or permanent (invalid input, unparseable responses)
// by wrapping them with TransientError or PermanentError. The worker pool
// uses IsTransient and IsPermanent to decide between retry and terminal
// failure.
package ai
