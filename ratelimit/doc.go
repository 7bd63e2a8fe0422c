// Copyright 2025 Sovdef Labs
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


// Package ratelimit provides a process-local, per-client request limiter.
//
// Each (client, category) pair owns a fixed-size counting window. Fixed
// windows are a deliberate simplicity trade-off over sliding windows: a
// client can burst up to twice its limit across a window boundary. That is a
// documented property of this limiter, not a bug.
//
// State is held in process memory only. A multi-instance deployment needs a
// shared backend instead; this package makes no attempt at cross-process
// coordination.
package ratelimit
