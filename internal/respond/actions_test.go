package respond

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cortexsoc/internal/models"
)

func TestExecutorSet_Execute(t *testing.T) {
	set := NewExecutorSet(zap.NewNop())

	tests := []struct {
		name        string
		action      string
		target      string
		wantTarget  string
		wantDetails string
	}{
		{
			name:        "block ip",
			action:      ActionBlockIP,
			target:      "1.2.3.4",
			wantTarget:  "1.2.3.4",
			wantDetails: "IP 1.2.3.4 added to blocklist (mock action)",
		},
		{
			name:        "disable account",
			action:      ActionDisableAccount,
			target:      "bob",
			wantTarget:  "bob",
			wantDetails: "User bob account disabled (mock action)",
		},
		{
			name:        "alert routes target as message to ops",
			action:      ActionAlert,
			target:      "suspicious activity",
			wantTarget:  "ops",
			wantDetails: "Alert sent to ops: suspicious activity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := set.Execute(tt.action, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.action, result.Action)
			assert.Equal(t, tt.wantTarget, result.Target)
			assert.Equal(t, models.ActionStatusSuccess, result.Status)
			assert.Equal(t, tt.wantDetails, result.Details)
		})
	}
}

func TestExecutorSet_UnknownAction(t *testing.T) {
	set := NewExecutorSet(zap.NewNop())

	_, err := set.Execute("launch_missiles", "anywhere")
	assert.ErrorIs(t, err, ErrUnknownAction)
}
