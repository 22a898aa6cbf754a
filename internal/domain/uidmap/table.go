package uidmap

import (
	"sort"
	"strings"

	"github.com/deviceos/pkgmap/internal/shared/types"
)

type appEntry struct {
	packageName string
	versionCode int64
}

// identityTable is the live uid -> installed packages multi-map. One uid may
// host several packages (shared-uid installs) and one package name may alias
// several uids, but at most one entry exists per (uid, package name) pair.
// Not safe for concurrent use; the Tracker's main lock guards it.
type identityTable struct {
	apps map[int32][]appEntry
	size int
}

func newIdentityTable() *identityTable {
	return &identityTable{apps: make(map[int32][]appEntry)}
}

// replace clears the table and installs entries as the complete new state.
func (t *identityTable) replace(entries []types.PackageEntry) {
	t.apps = make(map[int32][]appEntry, len(entries))
	t.size = 0
	for _, e := range entries {
		t.upsert(e.Uid, e.PackageName, e.VersionCode)
	}
}

// upsert updates the version in place when (uid, pkg) already exists,
// otherwise inserts a new entry.
func (t *identityTable) upsert(uid int32, pkg string, version int64) {
	bucket := t.apps[uid]
	for i := range bucket {
		if bucket[i].packageName == pkg {
			bucket[i].versionCode = version
			return
		}
	}
	t.apps[uid] = append(bucket, appEntry{packageName: pkg, versionCode: version})
	t.size++
}

// remove drops the first matching (uid, pkg) entry. Removing an absent
// entry is a no-op.
func (t *identityTable) remove(uid int32, pkg string) {
	bucket := t.apps[uid]
	for i := range bucket {
		if bucket[i].packageName == pkg {
			t.apps[uid] = append(bucket[:i], bucket[i+1:]...)
			if len(t.apps[uid]) == 0 {
				delete(t.apps, uid)
			}
			t.size--
			return
		}
	}
}

func (t *identityTable) has(uid int32, pkg string) bool {
	for _, e := range t.apps[uid] {
		if e.packageName == pkg {
			return true
		}
	}
	return false
}

// version returns the version code for (uid, pkg), or 0 when absent.
func (t *identityTable) version(uid int32, pkg string) int64 {
	for _, e := range t.apps[uid] {
		if e.packageName == pkg {
			return e.versionCode
		}
	}
	return 0
}

// names returns the sorted set of package names hosted at uid, lowercased
// when normalized is set.
func (t *identityTable) names(uid int32, normalized bool) []string {
	seen := make(map[string]struct{}, len(t.apps[uid]))
	for _, e := range t.apps[uid] {
		name := e.packageName
		if normalized {
			name = strings.ToLower(name)
		}
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// uidsFor returns the sorted set of uids hosting pkg.
func (t *identityTable) uidsFor(pkg string) []int32 {
	var uids []int32
	for uid, bucket := range t.apps {
		for _, e := range bucket {
			if e.packageName == pkg {
				uids = append(uids, uid)
				break
			}
		}
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	return uids
}

// entries returns the full table contents ordered by uid then package name,
// so snapshots of identical state serialize identically.
func (t *identityTable) entries() []types.PackageEntry {
	out := make([]types.PackageEntry, 0, t.size)
	for uid, bucket := range t.apps {
		for _, e := range bucket {
			out = append(out, types.PackageEntry{
				PackageName: e.packageName,
				VersionCode: e.versionCode,
				Uid:         uid,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Uid != out[j].Uid {
			return out[i].Uid < out[j].Uid
		}
		return out[i].PackageName < out[j].PackageName
	})
	return out
}

func (t *identityTable) len() int {
	return t.size
}
