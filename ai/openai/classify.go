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

package openai

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/openquill/threadlens/ai"
)

// classifyErr sorts an API failure into the transient/permanent taxonomy the
// worker pool retries on. Anything we cannot recognize is treated as
// transient so a one-off glitch never pins an item as failed forever.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ai.Transient(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ai.Transient(err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "status code: 429"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "status code: 5"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "timeout"):
		return ai.Transient(err)
	case strings.Contains(msg, "status code: 400"),
		strings.Contains(msg, "status code: 401"),
		strings.Contains(msg, "status code: 403"),
		strings.Contains(msg, "status code: 404"),
		strings.Contains(msg, "context length"),
		strings.Contains(msg, "maximum context"):
		return ai.Permanent(err)
	default:
		return ai.Transient(err)
	}
}
