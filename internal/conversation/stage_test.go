package conversation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStage(t *testing.T) {
	tests := []struct {
		in    string
		stage Stage
		ok    bool
	}{
		{"collecting_time", StageCollectingTime, true},
		{"time", StageCollectingTime, true},
		{"requests", StageCollectingSpecialRequests, true},
		{"greeting", StageGreeting, true},
		{"dessert", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			stage, ok := ParseStage(tt.in)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.stage, stage)
			}
		})
	}
}

func TestReplyEncodesStageNames(t *testing.T) {
	out, err := json.Marshal(Reply{CallID: "c", Stage: StageAwaitingManageChoice, Path: []Stage{StageLookup, StageFound}})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"call_id":"c","stage":"awaiting_manage_choice","path":["lookup","found"],"message":""}`, string(out))
}
