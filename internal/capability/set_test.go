package capability

import (
	"reflect"
	"sync"
	"testing"
)

// recordingObserver captures delta notifications for assertions.
type recordingObserver struct {
	mu      sync.Mutex
	added   [][]string
	removed [][]string
}

func (r *recordingObserver) CapabilitiesAdded(tags []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.added = append(r.added, tags)
}

func (r *recordingObserver) CapabilitiesRemoved(tags []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, tags)
}

func TestSet_AddRemoveRoundTrip(t *testing.T) {
	s := NewSet(MediaControlPlay, MediaControlPause)
	before := s.All()

	s.Add(VolumeControlSet)
	s.Remove(VolumeControlSet)

	after := s.All()
	if !reflect.DeepEqual(before, after) {
		t.Errorf("All() after round trip = %v, want %v", after, before)
	}
}

func TestSet_DuplicateAddProducesNoNotification(t *testing.T) {
	obs := &recordingObserver{}
	s := NewSet(MediaControlPlay)
	s.SetObserver(obs)

	s.Add(MediaControlPlay)

	if len(obs.added) != 0 {
		t.Errorf("duplicate Add notified %v, want no notification", obs.added)
	}
}

func TestSet_AddAllNotifiesOnlyNewTags(t *testing.T) {
	obs := &recordingObserver{}
	s := NewSet(MediaControlPlay)
	s.SetObserver(obs)

	s.AddAll([]string{MediaControlPlay, MediaControlPause, "", "  "})

	if len(obs.added) != 1 {
		t.Fatalf("AddAll notifications = %d, want 1", len(obs.added))
	}
	want := []string{MediaControlPause}
	if !reflect.DeepEqual(obs.added[0], want) {
		t.Errorf("AddAll notified %v, want %v", obs.added[0], want)
	}
}

func TestSet_RemoveAllNotifiesOnlyRemovedTags(t *testing.T) {
	obs := &recordingObserver{}
	s := NewSet(MediaControlPlay, MediaControlPause)
	s.SetObserver(obs)

	s.RemoveAll([]string{MediaControlPause, VolumeControlSet})

	if len(obs.removed) != 1 {
		t.Fatalf("RemoveAll notifications = %d, want 1", len(obs.removed))
	}
	want := []string{MediaControlPause}
	if !reflect.DeepEqual(obs.removed[0], want) {
		t.Errorf("RemoveAll notified %v, want %v", obs.removed[0], want)
	}

	// Removing nothing emits nothing.
	s.RemoveAll([]string{VolumeControlSet})
	if len(obs.removed) != 1 {
		t.Errorf("RemoveAll of absent tag notified %v", obs.removed[1:])
	}
}

func TestSet_BlankTagsIgnored(t *testing.T) {
	s := NewSet("", "  ")
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}

	s.Add("")
	s.Add("   ")
	if s.Len() != 0 {
		t.Errorf("Len() after blank adds = %d, want 0", s.Len())
	}
}

func TestSet_Has(t *testing.T) {
	tests := []struct {
		name  string
		tags  []string
		query string
		want  bool
	}{
		{
			name:  "exact match",
			tags:  []string{MediaControlPlay},
			query: MediaControlPlay,
			want:  true,
		},
		{
			name:  "exact mismatch",
			tags:  []string{MediaControlPlay},
			query: MediaControlPause,
			want:  false,
		},
		{
			name:  "wildcard matches bare family tag",
			tags:  []string{LauncherApp},
			query: "Launcher.App" + Any,
			want:  true,
		},
		{
			name:  "wildcard matches sub-family tag",
			tags:  []string{LauncherAppParams},
			query: "Launcher.App" + Any,
			want:  true,
		},
		{
			name:  "wildcard mismatch",
			tags:  []string{VolumeControlSet},
			query: "Launcher.App" + Any,
			want:  false,
		},
		{
			name:  "wildcard on empty registry",
			tags:  nil,
			query: "Launcher.App" + Any,
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSet(tt.tags...)
			if got := s.Has(tt.query); got != tt.want {
				t.Errorf("Has(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestSet_HasAll(t *testing.T) {
	s := NewSet(MediaControlPlay, MediaControlPause, LauncherApp)

	if !s.HasAll([]string{MediaControlPlay, "Launcher.App" + Any}) {
		t.Error("HasAll() = false, want true")
	}
	if s.HasAll([]string{MediaControlPlay, VolumeControlSet}) {
		t.Error("HasAll() with missing tag = true, want false")
	}
}

func TestSet_HasAny(t *testing.T) {
	s := NewSet(MediaControlPlay)

	if !s.HasAny([]string{VolumeControlSet, MediaControlPlay}) {
		t.Error("HasAny() = false, want true")
	}
	if s.HasAny([]string{VolumeControlSet, VolumeControlGet}) {
		t.Error("HasAny() with no matches = true, want false")
	}
	if s.HasAny(nil) {
		t.Error("HasAny(nil) = true, want false")
	}
}

func TestFamily_Wildcard(t *testing.T) {
	if got := FamilyMediaControl.Wildcard(); got != "MediaControl.Any" {
		t.Errorf("Wildcard() = %q, want %q", got, "MediaControl.Any")
	}
}
