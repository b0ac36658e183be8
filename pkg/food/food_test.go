package food

import "testing"

func TestHasDeliciousFood(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		want   bool
	}{
		{"nil", nil, false},
		{"empty", []string{}, false},
		{"plate food dish", []string{"Plate", "Food", "Dish"}, true},
		{"car road", []string{"Car", "Road"}, false},
		{"lowercase", []string{"food"}, true},
		{"uppercase", []string{"FOOD"}, true},
		{"substring", []string{"Fast food"}, true},
		{"compound word", []string{"Seafood"}, true},
		{"only last matches", []string{"Table", "Cutlery", "Junk Food"}, true},
		{"near miss", []string{"Foo", "Fod", "f o o d"}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasDeliciousFood(tc.labels); got != tc.want {
				t.Errorf("HasDeliciousFood(%v) = %v, want %v", tc.labels, got, tc.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	if v := Classify([]string{"Plate", "Food", "Dish"}); v != Delicious {
		t.Errorf("Classify: got %v, want %v", v, Delicious)
	}
	if v := Classify([]string{"Car", "Road"}); v != NotDelicious {
		t.Errorf("Classify: got %v, want %v", v, NotDelicious)
	}
	if Delicious.String() != "delicious" || NotDelicious.String() != "not_delicious" {
		t.Errorf("unexpected verdict names: %s, %s", Delicious, NotDelicious)
	}
}
