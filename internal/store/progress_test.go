package store

import (
	"testing"
)

func TestProgressRoundTrip(t *testing.T) {
	s := newTestStore(t)
	id, err := s.AddUser("learner", mustHash(t, "pw-learner"), nil, false)
	if err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	want := &Progress{
		Points:              120,
		CompletedTutorials:  []string{"variables", "loops"},
		CompletedChallenges: []string{"fizzbuzz"},
		EmojiCollection:     []string{"🐍", "⭐"},
	}
	if err := s.UpdateProgress(id, want); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}

	got, err := s.Progress(id)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if got.Points != want.Points {
		t.Fatalf("points = %d, want %d", got.Points, want.Points)
	}
	if len(got.CompletedTutorials) != 2 || got.CompletedTutorials[1] != "loops" {
		t.Fatalf("tutorials = %v", got.CompletedTutorials)
	}
	if len(got.CompletedChallenges) != 1 || got.CompletedChallenges[0] != "fizzbuzz" {
		t.Fatalf("challenges = %v", got.CompletedChallenges)
	}
	if len(got.EmojiCollection) != 2 || got.EmojiCollection[0] != "🐍" {
		t.Fatalf("emoji = %v", got.EmojiCollection)
	}
}

// nil slices must be stored as empty JSON arrays, not null, because the
// application json-decodes the columns and iterates the result.
func TestUpdateProgressNormalizesNilLists(t *testing.T) {
	s := newTestStore(t)
	id, err := s.AddUser("nil-lists", mustHash(t, "pw-nil"), nil, false)
	if err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	if err := s.UpdateProgress(id, &Progress{Points: 5}); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	got, err := s.Progress(id)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if got.CompletedTutorials == nil || got.CompletedChallenges == nil || got.EmojiCollection == nil {
		t.Fatalf("lists decoded as nil: %+v", got)
	}
}

func TestProgressForUserWithoutRow(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Progress(424242)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if got.Points != 0 || len(got.CompletedTutorials) != 0 {
		t.Fatalf("expected zero progress, got %+v", got)
	}
}

func TestUpdateProgressUnknownUser(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateProgress(424242, &Progress{Points: 1})
	if err == nil {
		t.Fatal("expected foreign key failure for unknown user")
	}
}
