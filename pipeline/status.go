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


package pipeline

import (
	"context"

	"github.com/poiesic/distill/core"
)

// StatusReport is the poll shape clients read while a document processes.
// Progress and Message appear only while the document is still processing;
// ErrorMessage only once it has failed.
type StatusReport struct {
	ID           core.ID `json:"id"`
	Status       string  `json:"status"`
	ErrorMessage string  `json:"errorMessage,omitempty"`
	Progress     *int    `json:"progress,omitempty"`
	Message      string  `json:"message,omitempty"`
}

// Status reports a document's processing state.
func (o *Orchestrator) Status(ctx context.Context, id core.ID) (*StatusReport, error) {
	doc, err := o.docs.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	report := &StatusReport{
		ID:     doc.Id,
		Status: doc.Status.String(),
	}
	switch doc.Status {
	case core.StatusProcessing:
		progress := doc.Progress
		report.Progress = &progress
		report.Message = doc.ProgressMessage
	case core.StatusFailed:
		report.ErrorMessage = doc.ErrorMessage
	}
	return report, nil
}
