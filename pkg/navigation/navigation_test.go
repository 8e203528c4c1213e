package navigation

import "testing"

func TestRecorderTracksVisits(t *testing.T) {
	recorder := NewRecorder()
	if current := recorder.Current(); current != EntryRoute {
		t.Fatalf("expected entry route before any visit, got %q", current)
	}

	recorder.Navigate(PrimaryListingRoute)
	recorder.Navigate(EntryRoute)
	recorder.Navigate(EntryRoute)

	if current := recorder.Current(); current != EntryRoute {
		t.Fatalf("expected entry route, got %q", current)
	}
	if count := recorder.Count(EntryRoute); count != 2 {
		t.Fatalf("expected 2 entry visits, got %d", count)
	}
	visits := recorder.Visits()
	visits[0] = "mutated"
	if recorder.Visits()[0] != PrimaryListingRoute {
		t.Fatalf("visits copy leaked into recorder")
	}
}

func TestFuncNavigator(t *testing.T) {
	var visited string
	var navigator Navigator = Func(func(route string) { visited = route })
	navigator.Navigate("/quartos")
	if visited != "/quartos" {
		t.Fatalf("expected /quartos, got %q", visited)
	}
	Discard.Navigate("/ignored")
}
