package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"healsync-portal-server/internal/models"
)

func TestFilterMatches(t *testing.T) {
	appt := models.Appointment{
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      "2025-04-15",
		Time:      "10:00",
		Status:    models.StatusScheduled,
	}

	assert.True(t, Filter{}.Matches(appt), "zero filter matches everything")
	assert.True(t, Filter{PatientID: patientID}.Matches(appt))
	assert.True(t, Filter{DoctorID: doctorID, Date: "2025-04-15"}.Matches(appt))
	assert.True(t, Filter{Status: models.StatusScheduled}.Matches(appt))

	assert.False(t, Filter{PatientID: patient2ID}.Matches(appt))
	assert.False(t, Filter{Date: "2025-04-16"}.Matches(appt))
	assert.False(t, Filter{Status: models.StatusCancelled}.Matches(appt))
	assert.False(t, Filter{PatientID: patientID, Status: models.StatusCompleted}.Matches(appt),
		"all set fields must match")
}

func TestSortChronological(t *testing.T) {
	appts := []models.Appointment{
		{Date: "2025-04-16", Time: "09:00", Reason: "c"},
		{Date: "2025-04-15", Time: "14:00", Reason: "b"},
		{Date: "2025-04-15", Time: "09:00", Reason: "a"},
		{Date: "2025-04-15", Time: "14:00", Reason: "b2"},
	}

	SortChronological(appts)

	assert.Equal(t, "a", appts[0].Reason)
	assert.Equal(t, "b", appts[1].Reason)
	assert.Equal(t, "b2", appts[2].Reason, "equal keys keep their original order")
	assert.Equal(t, "c", appts[3].Reason)
}
