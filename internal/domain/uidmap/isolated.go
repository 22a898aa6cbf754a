package uidmap

// Isolated uid bookkeeping. Guarded by isoMu alone: isolated uids churn on
// a different cadence than the package map and share no invariant with it.

// AssignIsolated maps an ephemeral isolated uid to its parent uid,
// replacing any previous mapping.
func (t *Tracker) AssignIsolated(isolatedUid, parentUid int32) {
	t.isoMu.Lock()
	defer t.isoMu.Unlock()
	t.isolated[isolatedUid] = parentUid
}

// ReleaseIsolated drops the mapping for isolatedUid if present. parentUid
// is accepted for call-site symmetry; removal keys on isolatedUid alone.
func (t *Tracker) ReleaseIsolated(isolatedUid, parentUid int32) {
	t.isoMu.Lock()
	defer t.isoMu.Unlock()
	delete(t.isolated, isolatedUid)
}

// ResolveUid returns the parent uid when uid is a known isolated uid, else
// uid itself unchanged.
func (t *Tracker) ResolveUid(uid int32) int32 {
	t.isoMu.Lock()
	defer t.isoMu.Unlock()
	if parent, ok := t.isolated[uid]; ok {
		return parent
	}
	return uid
}
