package auth

// Operation names an action a requester wants to perform on a file.
type Operation string

const (
	OperationRead     Operation = "read"
	OperationDownload Operation = "download"
	OperationUpload   Operation = "upload"
	OperationShare    Operation = "share"
	OperationDelete   Operation = "delete"
)

// CanPerform is the pure permission evaluator: no side effects, no I/O.
//
// Rules, in priority order:
//  1. admins may do anything
//  2. owners may do anything with their own files
//  3. editors and viewers may read and download
//  4. everything else is denied
//
// Note that share creation and deletion only pass rules 1-2: editors
// and viewers can read a file but cannot create shares for it. Share
// redemption never calls this function at all; a share link is a
// capability, not an identity.
func CanPerform(role Role, op Operation, ownerID, requesterID string) bool {
	if role == RoleAdmin {
		return true
	}
	if ownerID == requesterID {
		return true
	}
	if op == OperationRead || op == OperationDownload {
		return role == RoleEditor || role == RoleViewer
	}
	return false
}
