package models

// TimeSlot represents one bookable window offered by a doctor on a given
// calendar date. Date is "YYYY-MM-DD"; StartTime and EndTime are "HH:MM".
// IsAvailable is true only while no active appointment references the slot.
type TimeSlot struct {
	BaseModel
	DoctorID    string `gorm:"size:36;index:idx_slot,unique" json:"doctorId"`
	Date        string `gorm:"size:10;index:idx_slot,unique" json:"date"`
	StartTime   string `gorm:"size:5;index:idx_slot,unique" json:"startTime"`
	EndTime     string `gorm:"size:5" json:"endTime"`
	IsAvailable bool   `gorm:"default:true" json:"isAvailable"`

	// Relations
	Doctor User `gorm:"foreignKey:DoctorID" json:"-"`
}

// Overlaps reports whether two slots on the same doctor/date have
// intersecting time ranges. "HH:MM" strings compare correctly as strings.
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	if s.DoctorID != other.DoctorID || s.Date != other.Date {
		return false
	}
	return s.StartTime < other.EndTime && other.StartTime < s.EndTime
}
