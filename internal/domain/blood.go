package domain

import (
	"fmt"
	"strings"
)

// BloodType is one of the eight ABO/Rh blood groups.
// swagger:model BloodType
type BloodType string

const (
	BloodTypeAPos  BloodType = "A+"
	BloodTypeANeg  BloodType = "A-"
	BloodTypeBPos  BloodType = "B+"
	BloodTypeBNeg  BloodType = "B-"
	BloodTypeABPos BloodType = "AB+"
	BloodTypeABNeg BloodType = "AB-"
	BloodTypeOPos  BloodType = "O+"
	BloodTypeONeg  BloodType = "O-"
)

// AllBloodTypes lists every blood type in a fixed order. Lookups that return
// sets of blood types use this order.
var AllBloodTypes = []BloodType{
	BloodTypeAPos, BloodTypeANeg,
	BloodTypeBPos, BloodTypeBNeg,
	BloodTypeABPos, BloodTypeABNeg,
	BloodTypeOPos, BloodTypeONeg,
}

// donorCompatibility maps a donor blood type to the recipient types it may give to.
// Read-only after package initialization.
var donorCompatibility = map[BloodType]map[BloodType]struct{}{
	BloodTypeONeg:  setOf(BloodTypeONeg, BloodTypeOPos, BloodTypeANeg, BloodTypeAPos, BloodTypeBNeg, BloodTypeBPos, BloodTypeABNeg, BloodTypeABPos),
	BloodTypeOPos:  setOf(BloodTypeOPos, BloodTypeAPos, BloodTypeBPos, BloodTypeABPos),
	BloodTypeANeg:  setOf(BloodTypeANeg, BloodTypeAPos, BloodTypeABNeg, BloodTypeABPos),
	BloodTypeAPos:  setOf(BloodTypeAPos, BloodTypeABPos),
	BloodTypeBNeg:  setOf(BloodTypeBNeg, BloodTypeBPos, BloodTypeABNeg, BloodTypeABPos),
	BloodTypeBPos:  setOf(BloodTypeBPos, BloodTypeABPos),
	BloodTypeABNeg: setOf(BloodTypeABNeg, BloodTypeABPos),
	BloodTypeABPos: setOf(BloodTypeABPos),
}

func setOf(types ...BloodType) map[BloodType]struct{} {
	s := make(map[BloodType]struct{}, len(types))
	for _, t := range types {
		s[t] = struct{}{}
	}
	return s
}

// ParseBloodType normalizes s (trimmed, case-insensitive) and returns the matching
// BloodType, or ErrInvalidBloodType.
func ParseBloodType(s string) (BloodType, error) {
	bt := BloodType(strings.ToUpper(strings.TrimSpace(s)))
	if !bt.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidBloodType, s)
	}
	return bt, nil
}

// Valid reports whether t is one of the eight known blood types.
func (t BloodType) Valid() bool {
	_, ok := donorCompatibility[t]
	return ok
}

func (t BloodType) String() string { return string(t) }

// IsCompatible reports whether a donor of type donor may give to a recipient of type recipient.
func IsCompatible(donor, recipient BloodType) bool {
	recipients, ok := donorCompatibility[donor]
	if !ok {
		return false
	}
	_, ok = recipients[recipient]
	return ok
}

// CompatibleDonorTypes returns the donor types that may give to recipient.
func CompatibleDonorTypes(recipient BloodType) []BloodType {
	out := make([]BloodType, 0, len(AllBloodTypes))
	for _, donor := range AllBloodTypes {
		if IsCompatible(donor, recipient) {
			out = append(out, donor)
		}
	}
	return out
}

// CompatibleRecipientTypes returns the recipient types donor may give to.
func CompatibleRecipientTypes(donor BloodType) []BloodType {
	out := make([]BloodType, 0, len(AllBloodTypes))
	for _, recipient := range AllBloodTypes {
		if IsCompatible(donor, recipient) {
			out = append(out, recipient)
		}
	}
	return out
}
