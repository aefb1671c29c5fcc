package domain

import "strings"

// Drug is one course of treatment. Identity is the (DrugName, Dosage) pair;
// entries sharing that pair are kept as separate courses.
type Drug struct {
	DrugName     string `json:"drug_name" bson:"drug_name"`
	Dosage       string `json:"dosage" bson:"dosage"`
	Instructions string `json:"instructions,omitempty" bson:"instructions,omitempty"`
	Duration     string `json:"duration,omitempty" bson:"duration,omitempty"`
}

type DrugKey struct {
	DrugName string `json:"drug_name" bson:"drug_name"`
	Dosage   string `json:"dosage" bson:"dosage"`
}

func (d Drug) Key() DrugKey {
	return DrugKey{DrugName: d.DrugName, Dosage: d.Dosage}
}

func (d Drug) Matches(key DrugKey) bool {
	return d.DrugName == key.DrugName && d.Dosage == key.Dosage
}

func (k DrugKey) Valid() bool {
	return strings.TrimSpace(k.DrugName) != "" && strings.TrimSpace(k.Dosage) != ""
}

// DrugRegistry is the per-user document. ActiveDrugs is a view over AllDrugs
// maintained by explicit operations, not by constraint.
type DrugRegistry struct {
	UserID      string `json:"user_id" bson:"user_id"`
	AllDrugs    []Drug `json:"all_drugs" bson:"all_drugs"`
	ActiveDrugs []Drug `json:"active_drugs" bson:"active_drugs"`
}

// FindAll returns the first all_drugs entry with the given identity.
func (r *DrugRegistry) FindAll(key DrugKey) (Drug, bool) {
	return findDrug(r.AllDrugs, key)
}

func (r *DrugRegistry) FindActive(key DrugKey) (Drug, bool) {
	return findDrug(r.ActiveDrugs, key)
}

func findDrug(list []Drug, key DrugKey) (Drug, bool) {
	for _, d := range list {
		if d.Matches(key) {
			return d, true
		}
	}
	return Drug{}, false
}
