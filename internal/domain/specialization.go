package domain

// Choice pairs a stored value with its display label.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var specializations = []Choice{
	{"cardiology", "Cardiology"},
	{"dermatology", "Dermatology"},
	{"endocrinology", "Endocrinology"},
	{"gastroenterology", "Gastroenterology"},
	{"neurology", "Neurology"},
	{"oncology", "Oncology"},
	{"orthopedics", "Orthopedics"},
	{"pediatrics", "Pediatrics"},
	{"psychiatry", "Psychiatry"},
	{"radiology", "Radiology"},
	{"surgery", "Surgery"},
	{"urology", "Urology"},
	{"family_medicine", "Family Medicine"},
	{"internal_medicine", "Internal Medicine"},
	{"emergency_medicine", "Emergency Medicine"},
	{"anesthesiology", "Anesthesiology"},
	{"pathology", "Pathology"},
	{"obstetrics_gynecology", "Obstetrics & Gynecology"},
	{"ophthalmology", "Ophthalmology"},
	{"otolaryngology", "Otolaryngology"},
	{"other", "Other"},
}

// Specializations returns the selectable provider specializations.
func Specializations() []Choice {
	out := make([]Choice, len(specializations))
	copy(out, specializations)
	return out
}

func IsValidSpecialization(value string) bool {
	for _, c := range specializations {
		if c.Value == value {
			return true
		}
	}
	return false
}
