package records

import (
	"sort"
	"time"
)

// AggregatePeriods stamps every record with its camera's observation
// window: the earliest and latest timestamp among records of that camera.
// Records without a camera id share the UnknownCamera window.
func AggregatePeriods(recs []*DraftRecord) {
	windows := make(map[string]*Period)
	for _, r := range recs {
		key := r.CameraKey()
		w, ok := windows[key]
		if !ok {
			windows[key] = &Period{Start: r.Timestamp, End: r.Timestamp}
			continue
		}
		if r.Timestamp.Before(w.Start) {
			w.Start = r.Timestamp
		}
		if r.Timestamp.After(w.End) {
			w.End = r.Timestamp
		}
	}

	for _, r := range recs {
		w := *windows[r.CameraKey()]
		r.Period = &w
	}
}

type streamKey struct {
	camera  string
	species string
}

// ClassifyIndependence flags each record as an independent event or not.
//
// Records are grouped by (camera id, species) and ordered by timestamp,
// keeping discovery order on ties. The first record of a group is
// independent. A later record is independent when at least interval has
// elapsed since the last independent record of its group, and then becomes
// the new reference point. intervalMinutes must be positive.
func ClassifyIndependence(recs []*DraftRecord, intervalMinutes int) {
	interval := time.Duration(intervalMinutes) * time.Minute

	groups := make(map[streamKey][]*DraftRecord)
	var order []streamKey
	for _, r := range recs {
		k := streamKey{camera: r.CameraID, species: r.Species}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}

	for _, k := range order {
		group := groups[k]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Timestamp.Before(group[j].Timestamp)
		})

		last := group[0].Timestamp
		group[0].Independence = Independent
		for _, r := range group[1:] {
			if r.Timestamp.Sub(last) >= interval {
				r.Independence = Independent
				last = r.Timestamp
			} else {
				r.Independence = NotIndependent
			}
		}
	}
}
