package domain

import (
	"github.com/sharetube/roomtracks/pkg/ytvideo"
)

type AddResult struct {
	Added  bool
	Merged bool
	// Matches counts existing entries sharing the added video id. More than
	// one means the list already held duplicates.
	Matches int
}

// TrackList is the ordered list of distinct tracks seen in one room.
type TrackList []Track

func (l TrackList) Clone() TrackList {
	out := make(TrackList, len(l))
	copy(out, l)
	return out
}

func (l *TrackList) Add(track Track) AddResult {
	var res AddResult

	if id := ytvideo.NormalizeID(track.VideoID); id != "" {
		for i := range *l {
			existing := &(*l)[i]
			if ytvideo.NormalizeID(existing.VideoID) != id {
				continue
			}

			res.Matches++
			if existing.mergeFrom(track) {
				res.Merged = true
			}
		}
	}

	if res.Merged {
		return res
	}

	key := track.DuplicateKey()
	if n := len(*l); n > 0 && (*l)[n-1].DuplicateKey() == key {
		return res
	}

	for _, existing := range *l {
		if existing.DuplicateKey() == key {
			return res
		}
	}

	*l = append(*l, track)
	res.Added = true

	return res
}

// Remove deletes the entry at index. Out of range indexes are ignored.
func (l *TrackList) Remove(index int) bool {
	if index < 0 || index >= len(*l) {
		return false
	}

	*l = append((*l)[:index], (*l)[index+1:]...)
	return true
}
