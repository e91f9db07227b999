package ports

// ScanJob asks for a full alert re-evaluation of one user's vault.
type ScanJob struct {
	UserID string
}
