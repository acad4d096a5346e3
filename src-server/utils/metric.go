package utils

type Metric struct {
	DatabaseRead                  chan float64
	DatabaseWrite                 chan float64
	DatabaseReadForAuthMiddleware chan float64
	CertificateIssued             chan struct{}
	AttendanceCheckin             chan struct{}
}

func NewMetric() *Metric {
	return &Metric{
		DatabaseRead:                  make(chan float64),
		DatabaseWrite:                 make(chan float64),
		DatabaseReadForAuthMiddleware: make(chan float64),
		CertificateIssued:             make(chan struct{}),
		AttendanceCheckin:             make(chan struct{}),
	}
}

// Non-blocking send for counter-style metrics; drops the sample
// when no collector is running (e.g. in tests).
func (m *Metric) CountCertificateIssued() {
	if m == nil {
		return
	}
	select {
	case m.CertificateIssued <- struct{}{}:
	default:
	}
}

func (m *Metric) CountAttendanceCheckin() {
	if m == nil {
		return
	}
	select {
	case m.AttendanceCheckin <- struct{}{}:
	default:
	}
}
