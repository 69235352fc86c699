package dashboard

import (
	"context"
	"errors"

	"github.com/medibook/clinic-booking/internal/appointments"
	"github.com/medibook/clinic-booking/internal/doctors"
	"github.com/medibook/clinic-booking/internal/patients"
)

// AppointmentLister is satisfied by appointments.InMemoryRepository.
type AppointmentLister interface {
	List(ctx context.Context) ([]appointments.Appointment, error)
}

// MemorySource builds the dashboard from the in-memory repositories.
type MemorySource struct {
	patients     patients.Repository
	appointments AppointmentLister
	doctors      []doctors.Doctor
}

func NewMemorySource(p patients.Repository, a AppointmentLister, docs []doctors.Doctor) *MemorySource {
	return &MemorySource{patients: p, appointments: a, doctors: docs}
}

func (m *MemorySource) Patients(ctx context.Context, filter patients.ListFilter) ([]patients.Patient, error) {
	list, err := m.patients.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]patients.Patient, 0, len(list))
	for _, p := range list {
		out = append(out, *p)
	}
	return out, nil
}

func (m *MemorySource) Doctors(context.Context) ([]doctors.Doctor, error) {
	return append([]doctors.Doctor{}, m.doctors...), nil
}

func (m *MemorySource) doctor(id string) (doctors.Doctor, bool) {
	for _, d := range m.doctors {
		if d.ID == id {
			return d, true
		}
	}
	return doctors.Doctor{}, false
}

func (m *MemorySource) Appointments(ctx context.Context, filter appointments.ListFilter) ([]appointments.Details, error) {
	list, err := m.appointments.List(ctx)
	if err != nil {
		return nil, err
	}
	want := map[appointments.Status]bool{}
	for _, s := range filter.Statuses {
		want[s] = true
	}
	out := []appointments.Details{}
	for _, a := range list {
		if len(want) > 0 && !want[a.Status] {
			continue
		}
		d := appointments.Details{Appointment: a}
		p, err := m.patients.GetByID(ctx, a.PatientID)
		switch {
		case err == nil:
			d.Patient = appointments.PatientSummary{
				FirstName:   p.FirstName,
				LastName:    p.LastName,
				Email:       p.Email,
				Phone:       p.Phone,
				PatientType: string(p.PatientType),
			}
		case !errors.Is(err, patients.ErrPatientNotFound):
			return nil, err
		}
		if doc, ok := m.doctor(a.DoctorID); ok {
			d.Doctor = appointments.DoctorSummary{FirstName: doc.FirstName, LastName: doc.LastName, Specialty: doc.Specialty}
		}
		out = append(out, d)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *MemorySource) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	pats, err := m.patients.List(ctx, patients.ListFilter{})
	if err != nil {
		return nil, err
	}
	st.TotalPatients = len(pats)
	for _, p := range pats {
		if p.PatientType == patients.TypeNew {
			st.NewPatients++
		}
	}
	st.TotalDoctors = len(m.doctors)
	for _, d := range m.doctors {
		if d.IsAvailable {
			st.ActiveDoctors++
		}
	}
	appts, err := m.appointments.List(ctx)
	if err != nil {
		return nil, err
	}
	st.TotalAppointments = len(appts)
	for _, a := range appts {
		if a.Status == appointments.StatusPending {
			st.PendingAppointments++
		}
	}
	return &st, nil
}
