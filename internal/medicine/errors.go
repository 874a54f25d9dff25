package medicine

import "errors"

var (
	ErrMedicineNotFound  = errors.New("medicine not found")
	ErrPatientNotFound   = errors.New("patient not found")
	ErrInvalidQuantity   = errors.New("quantity must be a non-negative integer")
	ErrDuplicateMedicine = errors.New("a medicine with the same name and dosage already exists")
)
