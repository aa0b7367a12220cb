package terms

import "testing"

func TestFindAll_CanonicalMatch(t *testing.T) {
	idx := NewIndex()

	matches := idx.FindAll("The patient should take ibuprofen with food")
	if len(matches) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(matches))
	}

	m := matches[0]
	if m.Term.Canonical != "ibuprofen" {
		t.Errorf("Expected canonical 'ibuprofen', got '%s'", m.Term.Canonical)
	}
	if m.Confidence != 1.0 {
		t.Errorf("Expected confidence 1.0 for canonical match, got %f", m.Confidence)
	}
	if m.Term.Category != CategoryMedication {
		t.Errorf("Expected category medication, got %s", m.Term.Category)
	}
}

func TestFindAll_SynonymMatch(t *testing.T) {
	idx := NewIndex()

	matches := idx.FindAll("take some Advil for the pain")
	if len(matches) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(matches))
	}

	m := matches[0]
	if m.Term.Canonical != "ibuprofen" {
		t.Errorf("Expected synonym to resolve to 'ibuprofen', got '%s'", m.Term.Canonical)
	}
	if m.Confidence != 0.9 {
		t.Errorf("Expected confidence 0.9 for synonym match, got %f", m.Confidence)
	}
}

func TestFindAll_CaseInsensitive(t *testing.T) {
	idx := NewIndex()

	matches := idx.FindAll("IBUPROFEN 400 MG")
	if len(matches) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(matches))
	}
}

func TestFindAll_WordBoundary(t *testing.T) {
	idx := NewIndex()

	// "heartburn" must not match the anatomy term "heart"
	matches := idx.FindCategory("the patient reports heartburn", CategoryAnatomy)
	if len(matches) != 0 {
		t.Errorf("Expected no anatomy match inside 'heartburn', got %d", len(matches))
	}

	// but it is a synonym for gerd
	matches = idx.FindCategory("the patient reports heartburn", CategoryCondition)
	if len(matches) != 1 || matches[0].Term.Canonical != "gerd" {
		t.Errorf("Expected 'heartburn' to match gerd, got %+v", matches)
	}
}

func TestFindAll_MultiplePositionsKept(t *testing.T) {
	idx := NewIndex()

	matches := idx.FindCategory("ibuprofen in the morning and ibuprofen at night", CategoryMedication)
	if len(matches) != 2 {
		t.Fatalf("Expected 2 matches at distinct positions, got %d", len(matches))
	}
	if matches[0].Position >= matches[1].Position {
		t.Errorf("Expected matches ordered by position, got %d then %d", matches[0].Position, matches[1].Position)
	}
}

func TestFindAll_MultiWordTerm(t *testing.T) {
	idx := NewIndex()

	matches := idx.FindCategory("let's get a complete blood count today", CategoryLab)
	if len(matches) != 1 {
		t.Fatalf("Expected 1 lab match, got %d", len(matches))
	}
	if matches[0].Term.Canonical != "complete blood count" {
		t.Errorf("Expected 'complete blood count', got '%s'", matches[0].Term.Canonical)
	}
	if len(matches[0].Term.Codes.LOINC) == 0 {
		t.Error("Expected LOINC code on lab term")
	}
}

func TestFindAll_AccentedInput(t *testing.T) {
	idx := NewIndex()

	// Combining marks are stripped before matching
	matches := idx.FindAll("tómese ibuprofén cada día")
	found := false
	for _, m := range matches {
		if m.Term.Canonical == "ibuprofen" {
			found = true
		}
	}
	if !found {
		t.Error("Expected accented 'ibuprofén' to match ibuprofen")
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	in := "Tómese IBUPROFÉN"
	once := Normalize(in)
	twice := Normalize(once)
	if once != twice {
		t.Errorf("Normalize not idempotent: %q vs %q", once, twice)
	}
}

func TestFindCategory_FiltersOtherCategories(t *testing.T) {
	idx := NewIndex()

	matches := idx.FindCategory("ibuprofen for the knee", CategoryMedication)
	if len(matches) != 1 {
		t.Fatalf("Expected 1 medication match, got %d", len(matches))
	}
	for _, m := range matches {
		if m.Term.Category != CategoryMedication {
			t.Errorf("Expected only medication matches, got %s", m.Term.Category)
		}
	}
}
