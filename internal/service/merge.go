package service

import (
	"reflect"
	"sort"

	"github.com/MKhiriev/go-offline-sync/models"
)

// mergeSnapshots performs a field-level three-way merge of local and server
// changes made on top of base. Fields changed only locally overwrite the
// server value, fields changed only on the server are kept, and fields both
// sides changed to different values are returned as overlaps. The merged
// snapshot is meaningless when overlaps is not empty.
func mergeSnapshots(base, local, server models.Snapshot) (merged models.Snapshot, overlaps []string) {
	base, _ = base.Normalize()
	local, _ = local.Normalize()
	server, _ = server.Normalize()

	merged = server.Clone()
	if merged == nil {
		merged = models.Snapshot{}
	}

	keys := make(map[string]struct{}, len(base)+len(local))
	for k := range base {
		keys[k] = struct{}{}
	}
	for k := range local {
		keys[k] = struct{}{}
	}

	for key := range keys {
		baseValue, inBase := base[key]
		localValue, inLocal := local[key]
		serverValue, inServer := server[key]

		if !changed(baseValue, inBase, localValue, inLocal) {
			continue
		}
		if changed(baseValue, inBase, serverValue, inServer) &&
			changed(localValue, inLocal, serverValue, inServer) {
			overlaps = append(overlaps, key)
			continue
		}

		if inLocal {
			merged[key] = localValue
		} else {
			delete(merged, key)
		}
	}

	sort.Strings(overlaps)
	return merged, overlaps
}

func changed(a any, inA bool, b any, inB bool) bool {
	if inA != inB {
		return true
	}
	return !reflect.DeepEqual(a, b)
}
