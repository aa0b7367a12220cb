package terms

// Category classifies a clinical vocabulary entry.
type Category string

const (
	CategoryMedication Category = "medication"
	CategoryCondition  Category = "condition"
	CategoryProcedure  Category = "procedure"
	CategoryAnatomy    Category = "anatomy"
	CategoryLab        Category = "lab"
)

// Codes holds external coding-system identifiers for a term.
type Codes struct {
	ICD10  []string `json:"icd10,omitempty"`
	RxNorm []string `json:"rxnorm,omitempty"`
	LOINC  []string `json:"loinc,omitempty"`
	CPT    []string `json:"cpt,omitempty"`
}

// Term is one entry in the clinical vocabulary. The vocabulary is loaded
// once and never mutated at runtime.
type Term struct {
	Canonical string   `json:"term"`
	Category  Category `json:"category"`
	Synonyms  []string `json:"synonyms,omitempty"`
	Codes     Codes    `json:"codes,omitempty"`
}

// DefaultVocabulary returns the built-in clinical vocabulary.
func DefaultVocabulary() []Term {
	return []Term{
		// Medications
		{Canonical: "ibuprofen", Category: CategoryMedication, Synonyms: []string{"advil", "motrin"}, Codes: Codes{RxNorm: []string{"5640"}}},
		{Canonical: "acetaminophen", Category: CategoryMedication, Synonyms: []string{"tylenol", "paracetamol"}, Codes: Codes{RxNorm: []string{"161"}}},
		{Canonical: "amoxicillin", Category: CategoryMedication, Synonyms: []string{"amoxil"}, Codes: Codes{RxNorm: []string{"723"}}},
		{Canonical: "azithromycin", Category: CategoryMedication, Synonyms: []string{"zithromax", "z-pack"}, Codes: Codes{RxNorm: []string{"18631"}}},
		{Canonical: "lisinopril", Category: CategoryMedication, Synonyms: []string{"prinivil", "zestril"}, Codes: Codes{RxNorm: []string{"29046"}}},
		{Canonical: "metformin", Category: CategoryMedication, Synonyms: []string{"glucophage"}, Codes: Codes{RxNorm: []string{"6809"}}},
		{Canonical: "atorvastatin", Category: CategoryMedication, Synonyms: []string{"lipitor"}, Codes: Codes{RxNorm: []string{"83367"}}},
		{Canonical: "omeprazole", Category: CategoryMedication, Synonyms: []string{"prilosec"}, Codes: Codes{RxNorm: []string{"7646"}}},
		{Canonical: "albuterol", Category: CategoryMedication, Synonyms: []string{"ventolin", "proventil", "salbutamol"}, Codes: Codes{RxNorm: []string{"435"}}},
		{Canonical: "prednisone", Category: CategoryMedication, Synonyms: []string{"deltasone"}, Codes: Codes{RxNorm: []string{"8640"}}},
		{Canonical: "aspirin", Category: CategoryMedication, Synonyms: []string{"asa"}, Codes: Codes{RxNorm: []string{"1191"}}},
		{Canonical: "amlodipine", Category: CategoryMedication, Synonyms: []string{"norvasc"}, Codes: Codes{RxNorm: []string{"17767"}}},
		{Canonical: "sertraline", Category: CategoryMedication, Synonyms: []string{"zoloft"}, Codes: Codes{RxNorm: []string{"36437"}}},
		{Canonical: "gabapentin", Category: CategoryMedication, Synonyms: []string{"neurontin"}, Codes: Codes{RxNorm: []string{"25480"}}},
		{Canonical: "levothyroxine", Category: CategoryMedication, Synonyms: []string{"synthroid"}, Codes: Codes{RxNorm: []string{"10582"}}},

		// Conditions
		{Canonical: "hypertension", Category: CategoryCondition, Synonyms: []string{"high blood pressure"}, Codes: Codes{ICD10: []string{"I10"}}},
		{Canonical: "diabetes", Category: CategoryCondition, Synonyms: []string{"diabetes mellitus", "type 2 diabetes"}, Codes: Codes{ICD10: []string{"E11.9"}}},
		{Canonical: "asthma", Category: CategoryCondition, Codes: Codes{ICD10: []string{"J45.909"}}},
		{Canonical: "pneumonia", Category: CategoryCondition, Codes: Codes{ICD10: []string{"J18.9"}}},
		{Canonical: "migraine", Category: CategoryCondition, Codes: Codes{ICD10: []string{"G43.909"}}},
		{Canonical: "hyperlipidemia", Category: CategoryCondition, Synonyms: []string{"high cholesterol"}, Codes: Codes{ICD10: []string{"E78.5"}}},
		{Canonical: "depression", Category: CategoryCondition, Synonyms: []string{"major depressive disorder"}, Codes: Codes{ICD10: []string{"F32.9"}}},
		{Canonical: "anxiety", Category: CategoryCondition, Codes: Codes{ICD10: []string{"F41.9"}}},
		{Canonical: "gerd", Category: CategoryCondition, Synonyms: []string{"acid reflux", "heartburn"}, Codes: Codes{ICD10: []string{"K21.9"}}},
		{Canonical: "urinary tract infection", Category: CategoryCondition, Synonyms: []string{"uti"}, Codes: Codes{ICD10: []string{"N39.0"}}},

		// Labs
		{Canonical: "complete blood count", Category: CategoryLab, Synonyms: []string{"cbc"}, Codes: Codes{LOINC: []string{"58410-2"}}},
		{Canonical: "basic metabolic panel", Category: CategoryLab, Synonyms: []string{"bmp"}, Codes: Codes{LOINC: []string{"51990-0"}}},
		{Canonical: "comprehensive metabolic panel", Category: CategoryLab, Synonyms: []string{"cmp"}, Codes: Codes{LOINC: []string{"24323-8"}}},
		{Canonical: "lipid panel", Category: CategoryLab, Synonyms: []string{"cholesterol panel"}, Codes: Codes{LOINC: []string{"57698-3"}}},
		{Canonical: "hemoglobin a1c", Category: CategoryLab, Synonyms: []string{"a1c", "glycated hemoglobin"}, Codes: Codes{LOINC: []string{"4548-4"}}},
		{Canonical: "thyroid stimulating hormone", Category: CategoryLab, Synonyms: []string{"tsh"}, Codes: Codes{LOINC: []string{"3016-3"}}},
		{Canonical: "urinalysis", Category: CategoryLab, Synonyms: []string{"urine test"}, Codes: Codes{LOINC: []string{"24357-6"}}},
		{Canonical: "liver function test", Category: CategoryLab, Synonyms: []string{"lft", "hepatic panel"}, Codes: Codes{LOINC: []string{"24325-3"}}},

		// Procedures
		{Canonical: "x-ray", Category: CategoryProcedure, Synonyms: []string{"xray", "radiograph"}, Codes: Codes{CPT: []string{"71045"}}},
		{Canonical: "mri", Category: CategoryProcedure, Synonyms: []string{"magnetic resonance imaging"}, Codes: Codes{CPT: []string{"70551"}}},
		{Canonical: "ct scan", Category: CategoryProcedure, Synonyms: []string{"cat scan", "computed tomography"}, Codes: Codes{CPT: []string{"74176"}}},
		{Canonical: "ultrasound", Category: CategoryProcedure, Synonyms: []string{"sonogram"}, Codes: Codes{CPT: []string{"76700"}}},
		{Canonical: "echocardiogram", Category: CategoryProcedure, Synonyms: []string{"echo"}, Codes: Codes{CPT: []string{"93306"}}},
		{Canonical: "electrocardiogram", Category: CategoryProcedure, Synonyms: []string{"ekg", "ecg"}, Codes: Codes{CPT: []string{"93000"}}},
		{Canonical: "colonoscopy", Category: CategoryProcedure, Codes: Codes{CPT: []string{"45378"}}},
		{Canonical: "mammogram", Category: CategoryProcedure, Synonyms: []string{"mammography"}, Codes: Codes{CPT: []string{"77067"}}},

		// Anatomy
		{Canonical: "chest", Category: CategoryAnatomy},
		{Canonical: "abdomen", Category: CategoryAnatomy, Synonyms: []string{"belly", "stomach"}},
		{Canonical: "head", Category: CategoryAnatomy},
		{Canonical: "heart", Category: CategoryAnatomy},
		{Canonical: "lungs", Category: CategoryAnatomy, Synonyms: []string{"lung"}},
		{Canonical: "kidney", Category: CategoryAnatomy, Synonyms: []string{"kidneys"}},
		{Canonical: "liver", Category: CategoryAnatomy},
		{Canonical: "throat", Category: CategoryAnatomy},
		{Canonical: "back", Category: CategoryAnatomy},
		{Canonical: "knee", Category: CategoryAnatomy},
	}
}
