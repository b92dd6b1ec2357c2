package rate

import (
	"github.com/shopspring/decimal"

	"github.com/OceanLab-Technology/masterJGS/internal/model"
)

// CanEditMaster reports whether a master-value edit is allowed for an entity
// with the given blocking flag. Every master mutation path consults this
// before accepting input.
func CanEditMaster(isBlocked bool) bool {
	return !isBlocked
}

// ApplySegmentMaster returns the segment with its master value replaced.
// Fails with ErrBlocked when the segment's gate is closed, with a
// ValidationError when the value is negative. The admin value is read-only
// here regardless.
func ApplySegmentMaster(s model.Segment, v decimal.Decimal) (model.Segment, error) {
	if !CanEditMaster(s.IsBlocked) {
		return model.Segment{}, model.ErrBlocked
	}
	if v.IsNegative() {
		return model.Segment{}, model.Invalid("master_value", "must be non-negative")
	}
	s.MasterValue = v
	return s, nil
}

// ApplyScriptMaster returns the script with its master value replaced,
// subject to the same gate as segments.
func ApplyScriptMaster(s model.Script, v decimal.Decimal) (model.Script, error) {
	if !CanEditMaster(s.IsBlocked) {
		return model.Script{}, model.ErrBlocked
	}
	if v.IsNegative() {
		return model.Script{}, model.Invalid("masterValue", "must be non-negative")
	}
	s.MasterValue = v
	return s, nil
}

// ToggleSegmentBlock flips the segment's blocking flag. The admin value is
// untouched; any uncommitted master edit for the entity is the caller's to
// discard.
func ToggleSegmentBlock(s model.Segment) model.Segment {
	s.IsBlocked = !s.IsBlocked
	return s
}

// ToggleScriptBlock flips the script's blocking flag.
func ToggleScriptBlock(s model.Script) model.Script {
	s.IsBlocked = !s.IsBlocked
	return s
}
