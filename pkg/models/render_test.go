package models

import "testing"

func TestRenderStatus_Constants(t *testing.T) {
	tests := []struct {
		constant RenderStatus
		expected string
	}{
		{RenderQueued, "queued"},
		{RenderProcessing, "processing"},
		{RenderCompleted, "completed"},
		{RenderFailed, "failed"},
		{RenderAwaitingProvider, "awaiting_provider"},
		{RenderBudgetExceeded, "budget_exceeded"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if string(tt.constant) != tt.expected {
				t.Errorf("constant = %q, want %q", tt.constant, tt.expected)
			}
		})
	}
}

func TestRenderStatus_CanTransition(t *testing.T) {
	allowed := map[RenderStatus][]RenderStatus{
		RenderQueued:     {RenderProcessing, RenderAwaitingProvider, RenderBudgetExceeded},
		RenderProcessing: {RenderCompleted, RenderFailed},
	}

	all := []RenderStatus{
		RenderQueued, RenderProcessing, RenderCompleted,
		RenderFailed, RenderAwaitingProvider, RenderBudgetExceeded,
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, ok := range allowed[from] {
				if ok == to {
					want = true
				}
			}
			if got := from.CanTransition(to); got != want {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestRenderStatus_Terminal(t *testing.T) {
	terminal := []RenderStatus{RenderCompleted, RenderFailed, RenderAwaitingProvider, RenderBudgetExceeded}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	if RenderQueued.Terminal() || RenderProcessing.Terminal() {
		t.Error("queued and processing must not be terminal")
	}
}

func TestRenderResult_Validate(t *testing.T) {
	progress := 50
	badProgress := 150

	tests := []struct {
		name    string
		result  RenderResult
		wantErr bool
	}{
		{
			name:    "completed with output URL",
			result:  RenderResult{JobID: "j1", Status: RenderCompleted, OutputURL: "https://cdn.example.com/v.mp4"},
			wantErr: false,
		},
		{
			name:    "completed with preview URL only",
			result:  RenderResult{JobID: "j2", Status: RenderCompleted, PreviewURL: "https://cdn.example.com/p.mp4"},
			wantErr: false,
		},
		{
			name:    "completed without any URL",
			result:  RenderResult{JobID: "j3", Status: RenderCompleted},
			wantErr: true,
		},
		{
			name:    "failed without error",
			result:  RenderResult{JobID: "j4", Status: RenderFailed},
			wantErr: true,
		},
		{
			name:    "failed with error",
			result:  RenderResult{JobID: "j5", Status: RenderFailed, Error: "render exploded"},
			wantErr: false,
		},
		{
			name:    "awaiting provider without next action",
			result:  RenderResult{JobID: "j6", Status: RenderAwaitingProvider},
			wantErr: true,
		},
		{
			name: "awaiting provider with next action",
			result: RenderResult{
				JobID: "j7", Status: RenderAwaitingProvider,
				NextAction: &NextAction{Label: "Connect provider", Action: "connect"},
			},
			wantErr: false,
		},
		{
			name:    "progress while processing",
			result:  RenderResult{JobID: "j8", Status: RenderProcessing, Progress: &progress},
			wantErr: false,
		},
		{
			name:    "progress while queued",
			result:  RenderResult{JobID: "j9", Status: RenderQueued, Progress: &progress},
			wantErr: true,
		},
		{
			name:    "progress out of range",
			result:  RenderResult{JobID: "j10", Status: RenderProcessing, Progress: &badProgress},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.result.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
