package model

import "time"

// SchemaVersion tags the persisted document. Version mismatches are loaded
// as-is with a warning; there is no migration logic.
const SchemaVersion = "1.0.0"

// Document is the single JSON document persisted to the key-value store.
// DoseRecords holds taken/missed exceptions only, never a full calendar.
type Document struct {
	Version       string         `json:"version"`
	LastModified  time.Time      `json:"last_modified"`
	Patients      []Patient      `json:"patients"`
	Medicines     []Medicine     `json:"medicines"`
	DoseRecords   []DoseRecord   `json:"dose_records"`
	RefillRecords []RefillRecord `json:"refill_records"`
	Settings      Settings       `json:"settings"`
}

// NewDocument returns an empty document with default settings.
func NewDocument() *Document {
	return &Document{
		Version:       SchemaVersion,
		Patients:      []Patient{},
		Medicines:     []Medicine{},
		DoseRecords:   []DoseRecord{},
		RefillRecords: []RefillRecord{},
		Settings:      DefaultSettings(),
	}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	out := &Document{
		Version:       d.Version,
		LastModified:  d.LastModified,
		Patients:      make([]Patient, len(d.Patients)),
		Medicines:     make([]Medicine, len(d.Medicines)),
		DoseRecords:   make([]DoseRecord, len(d.DoseRecords)),
		RefillRecords: make([]RefillRecord, len(d.RefillRecords)),
		Settings:      d.Settings,
	}
	copy(out.Patients, d.Patients)
	copy(out.Medicines, d.Medicines)
	copy(out.DoseRecords, d.DoseRecords)
	copy(out.RefillRecords, d.RefillRecords)
	for i := range out.Patients {
		out.Patients[i].MedicalConditions = append([]string(nil), d.Patients[i].MedicalConditions...)
		out.Patients[i].Allergies = append([]string(nil), d.Patients[i].Allergies...)
	}
	for i := range out.Medicines {
		out.Medicines[i].Timings = append([]string(nil), d.Medicines[i].Timings...)
	}
	return out
}

// FindPatient returns the patient with the given id, or nil.
func (d *Document) FindPatient(id string) *Patient {
	for i := range d.Patients {
		if d.Patients[i].ID == id {
			return &d.Patients[i]
		}
	}
	return nil
}

// FindMedicine returns the medicine with the given id, or nil.
func (d *Document) FindMedicine(id string) *Medicine {
	for i := range d.Medicines {
		if d.Medicines[i].ID == id {
			return &d.Medicines[i]
		}
	}
	return nil
}

// FindDoseRecord returns the persisted exception record for the natural key,
// or nil when the instance is still virtual.
func (d *Document) FindDoseRecord(medicineID string, scheduledTime time.Time) *DoseRecord {
	for i := range d.DoseRecords {
		if d.DoseRecords[i].MedicineID == medicineID && d.DoseRecords[i].ScheduledTime.Equal(scheduledTime) {
			return &d.DoseRecords[i]
		}
	}
	return nil
}

// FindRefill returns the refill record with the given id, or nil.
func (d *Document) FindRefill(id string) *RefillRecord {
	for i := range d.RefillRecords {
		if d.RefillRecords[i].ID == id {
			return &d.RefillRecords[i]
		}
	}
	return nil
}

// DoseIndex builds a natural-key index over the persisted exception records.
func (d *Document) DoseIndex() map[string]*DoseRecord {
	idx := make(map[string]*DoseRecord, len(d.DoseRecords))
	for i := range d.DoseRecords {
		idx[d.DoseRecords[i].Key()] = &d.DoseRecords[i]
	}
	return idx
}
