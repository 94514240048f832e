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


// Package transcript acquires timed transcripts for video documents.
//
// Acquisition prefers native captions: each language in the preference list
// gets one time-boxed fetch, and the first non-empty track wins. When every
// caption attempt fails or comes up empty, the acquirer degrades to speech
// recognition: the audio track is transcoded to mono 16kHz WAV with ffmpeg,
// uploaded to the recognition service with a signed request, and the
// resulting order is polled until it settles. Definitive service failures
// (upload, transcoding, duration limit, silence) carry distinct sentinel
// errors and are never retried; transient polling errors are absorbed up to
// an attempt budget.
package transcript
