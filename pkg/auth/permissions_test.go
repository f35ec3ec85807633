package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanPerform(t *testing.T) {
	tests := []struct {
		name        string
		role        Role
		op          Operation
		ownerID     string
		requesterID string
		want        bool
	}{
		{"admin can share others' files", RoleAdmin, OperationShare, "owner", "admin-user", true},
		{"admin can delete others' files", RoleAdmin, OperationDelete, "owner", "admin-user", true},
		{"owner can share own file", RoleViewer, OperationShare, "u1", "u1", true},
		{"owner can delete own file", RoleViewer, OperationDelete, "u1", "u1", true},
		{"owner can download own file", RoleEditor, OperationDownload, "u1", "u1", true},
		{"editor can read others' files", RoleEditor, OperationRead, "owner", "u2", true},
		{"editor can download others' files", RoleEditor, OperationDownload, "owner", "u2", true},
		{"viewer can read others' files", RoleViewer, OperationRead, "owner", "u2", true},
		{"viewer can download others' files", RoleViewer, OperationDownload, "owner", "u2", true},
		{"viewer cannot share others' files", RoleViewer, OperationShare, "owner", "u2", false},
		{"editor cannot share others' files", RoleEditor, OperationShare, "owner", "u2", false},
		{"viewer cannot delete others' files", RoleViewer, OperationDelete, "owner", "u2", false},
		{"editor cannot delete others' files", RoleEditor, OperationDelete, "owner", "u2", false},
		{"unknown role denied non-read ops", Role("guest"), OperationShare, "owner", "u2", false},
		{"unknown role denied reads", Role("guest"), OperationRead, "owner", "u2", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanPerform(tt.role, tt.op, tt.ownerID, tt.requesterID)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleEditor.Valid())
	assert.True(t, RoleViewer.Valid())
	assert.False(t, Role("root").Valid())
	assert.False(t, Role("").Valid())
}
