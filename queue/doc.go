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

// Package queue runs the embedding worker pool against the durable work
// queue.
//
// Workers claim pending items in batches, compute an embedding and derived
// metadata for each document, and complete the item. Claims are atomic at
// the storage layer, so any number of worker processes can share one queue
// without duplicating work.
//
// Embedding API calls are rate limited across the whole pool. Transient
// failures mark the item failed for a later retry pass; permanent failures
// pin the item at the attempts ceiling so no retry resurrects it. Metadata
// extraction is best-effort: a document whose vector stored but whose
// metadata did not completes anyway, and the recovery pass re-queues it.
package queue
