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

// Package search provides hybrid retrieval over ingested documents.
//
// The Searcher type implements a multi-stage pipeline that combines:
//   - Vector similarity over the stored embeddings
//   - Keyword relevance from the lexical index
//   - Location boosting driven by query analysis
//
// Both legs are normalized to [0,1] and merged with the query's weights; a
// document missing from one leg contributes zero for it. When the embedding
// service is unavailable and the query opts in, search degrades to
// keyword-only results flagged as supplemental rather than failing.
package search
